package dataloader

import "net/http"

// Middleware creates an HTTP middleware that instantiates a per-request
// loader registry and stores it in the request context.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRegistry(r.Context(), NewRegistry())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
