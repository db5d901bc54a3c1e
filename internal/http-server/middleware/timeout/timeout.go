package timeout

import (
	"context"
	"net/http"
	"time"
)

// Timeout middleware bounds the request context. Handlers that wait on the
// remote platform observe the deadline through r.Context().
func Timeout(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
