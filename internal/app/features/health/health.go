// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger checks a backend's reachability. *mongo.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Handler provides health check endpoints.
type Handler struct {
	mongo   Pinger
	started time.Time
	logger  *zap.Logger
}

// NewHandler creates a new health check Handler.
func NewHandler(mongo Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		mongo:   mongo,
		started: time.Now(),
		logger:  logger,
	}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime,omitempty"`
	Services map[string]string `json:"services,omitempty"`
}

// MountRootEndpoints adds /health, /ready and /live directly on the root
// router, outside the API's auth and rate limiting.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/health", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
}

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.mongo.Ping(ctx, readpref.Primary())
}

// Check performs a full health check including database connectivity.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:   "ok",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Services: make(map[string]string),
	}

	if err := h.ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		resp.Services["mongodb"] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready checks if the service is ready to accept requests.
// Used by Kubernetes readiness probes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready"})
		return
	}
	jsonutil.JSON(w, http.StatusOK, Response{Status: "ready"})
}

// Live checks if the process is serving. It never touches a backend.
// Used by Kubernetes liveness probes.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.JSON(w, http.StatusOK, Response{Status: "alive"})
}
