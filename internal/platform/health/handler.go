// Package health serves the liveness, readiness and status probes.
// Liveness is unconditional; readiness runs the probes registered at
// startup, one per configured backend, and fails when any of them does.
package health

import (
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"signet/internal/transport/http/json"
)

// Version is stamped at build time via ldflags.
var Version = "dev"

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func() error

// Handler answers the probe endpoints.
type Handler struct {
	started     time.Time
	environment string

	mu     sync.RWMutex
	probes map[string]CheckFunc
}

// New constructs a Handler with no registered probes.
func New(environment string) *Handler {
	return &Handler{
		started:     time.Now(),
		environment: environment,
		probes:      make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named readiness probe.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = check
}

// Register mounts the probe routes. /healthz and /readyz are aliases so
// kubernetes-style probe configs work unchanged.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleStatus)
	r.Get("/health/live", h.handleLiveness)
	r.Get("/health/ready", h.handleReadiness)
	r.Get("/healthz", h.handleLiveness)
	r.Get("/readyz", h.handleReadiness)
}

// LivenessResponse is the fixed body the liveness endpoints serve.
type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	json.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// ReadinessResponse reports the verdict of every registered probe.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	results, ready := h.runProbes()

	response := ReadinessResponse{Status: "ready", Checks: results}
	status := http.StatusOK
	if !ready {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	json.WriteJSON(w, status, response)
}

// runProbes snapshots the registered probes under the read lock and runs
// each outside it, so a slow backend ping cannot block registration.
func (h *Handler) runProbes() (map[string]string, bool) {
	h.mu.RLock()
	probes := maps.Clone(h.probes)
	h.mu.RUnlock()

	results := make(map[string]string, len(probes))
	ready := true
	for name, probe := range probes {
		if err := probe(); err != nil {
			results[name] = "down: " + err.Error()
			ready = false
			continue
		}
		results[name] = "up"
	}
	return results, ready
}

// StatusResponse is the build and uptime document /health serves.
type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	json.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
