package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var retriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "invitebot",
	Name:      "provider_retries_total",
	Help:      "Retries of remote platform calls by cause; exhausted=true when the call gave up",
}, []string{"kind", "exhausted"})

func init() {
	prometheus.MustRegister(retriesTotal)
}

func observeRetry(kind Kind, exhausted bool) {
	ex := "false"
	if exhausted {
		ex = "true"
	}
	retriesTotal.WithLabelValues(kind.String(), ex).Inc()
}
