package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	passesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "invitebot",
		Name:      "sync_runs_total",
		Help:      "Finished sync passes by result",
	}, []string{"result"})
	passDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "invitebot",
		Name:      "sync_duration_seconds",
		Help:      "Duration of sync passes",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	linksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "invitebot",
		Name:      "sync_links",
		Help:      "Links received by the latest successful sync pass",
	})
	stateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "invitebot",
		Name:      "sync_state",
		Help:      "Scheduler state: 0 idle, 1 running, 2 syncing, 3 sleeping, 4 stopped",
	})
)

func init() {
	prometheus.MustRegister(passesTotal, passDuration, linksGauge, stateGauge)
}

func observePass(r Result, err error) {
	passDuration.Observe(r.Duration.Seconds())
	if err != nil {
		passesTotal.WithLabelValues("error").Inc()
		return
	}
	passesTotal.WithLabelValues("ok").Inc()
	linksGauge.Set(float64(r.Links))
}
