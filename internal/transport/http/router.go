// Package httptransport assembles the HTTP surface: middleware stack, health
// and metrics endpoints, and the account routes. Handlers delegate to domain
// services; no business logic lives at this layer.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signet/internal/auth/handler"
	"signet/internal/platform/health"
	"signet/internal/platform/metrics"
	"signet/internal/platform/middleware"
	"signet/pkg/platform/middleware/requesttime"
)

// maxBodyBytes caps request bodies. Sign-up is the largest request and fits
// in a kilobyte; a megabyte leaves margin without inviting abuse.
const maxBodyBytes = 1 << 20

// Deps carries everything the router mounts. Metrics may be nil, in which
// case request recording is skipped.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Health   *health.Handler
	Accounts *handler.Handler
	Verifier middleware.AccessVerifier
	Timeout  time.Duration
}

// NewRouter wires all endpoints with the middleware stack.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.Timeout(d.Timeout))
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.ContentTypeJSON)

	d.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public account routes. OptionalAuth resolves a caller when a token is
	// present so sign-up can authorize administrator creation; everyone else
	// passes through anonymous.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(d.Verifier, d.Logger))
		d.Accounts.Register(r)
	})

	// Everything below requires a verified access token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Verifier, d.Logger))
		d.Accounts.RegisterProtected(r)
	})

	return r
}
