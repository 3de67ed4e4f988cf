// Package requesttime pins one clock reading to each request. Every
// decision made while serving it — lockout-window arithmetic, token
// expiries, audit timestamps — reads the same "now", so a request cannot
// straddle a window boundary halfway through its own processing.
package requesttime

import (
	"context"
	"net/http"
	"time"
)

type contextKeyRequestTime struct{}

// Middleware samples the clock once, before any handler work, and stores
// the reading in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), contextKeyRequestTime{}, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Now returns the request's pinned time. Contexts that never passed
// through the middleware — workers, CLI commands — get the live clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(contextKeyRequestTime{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins an explicit time on ctx. Tests use it to drive services
// without the HTTP chain; workers use it to hold one time across a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyRequestTime{}, t)
}
