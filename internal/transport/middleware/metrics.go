package middleware

import (
	"net/http"
	"time"
)

type httpObserver interface {
	ObserveRequest(method, path string, status int, duration time.Duration)
}

// Metrics reports every request to obs. Paths outside known are recorded
// as "other" to keep label cardinality bounded.
func Metrics(obs httpObserver, known ...string) Middleware {
	routes := make(map[string]struct{}, len(known))
	for _, p := range known {
		routes[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			path := r.URL.Path
			if _, ok := routes[path]; !ok {
				path = "other"
			}
			obs.ObserveRequest(r.Method, path, sw.status, time.Since(start))
		})
	}
}
