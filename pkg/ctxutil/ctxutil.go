package ctxutil

import (
	"context"
	"net/http"
)

type ctxKey string

const (
	claimsKey    ctxKey = "jwt_claims"
	requestIDKey ctxKey = "request_id"
	requestKey   ctxKey = "http_request"
)

// WithClaims stores verified JWT claims in the context.
func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromCtx extracts JWT claims from the context.
// Returns nil and false if the request is anonymous.
func ClaimsFromCtx(ctx context.Context) (map[string]any, bool) {
	claims, ok := ctx.Value(claimsKey).(map[string]any)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}

// SubjectFromCtx returns the "sub" claim, or an empty string.
func SubjectFromCtx(ctx context.Context) string {
	claims, ok := ClaimsFromCtx(ctx)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequest exposes the inbound HTTP request to resolver code.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey, r)
}

// RequestFromCtx returns the inbound HTTP request, if any.
func RequestFromCtx(ctx context.Context) (*http.Request, bool) {
	r, ok := ctx.Value(requestKey).(*http.Request)
	return r, ok && r != nil
}
