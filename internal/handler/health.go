package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/wizelai/insight-engine/internal/models"
)

const version = "1.0.0"

// Pinger is implemented by dependencies that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health with dependency checks.
type HealthHandler struct {
	warehouse Pinger
	store     Pinger
}

func NewHealthHandler(warehouse, store Pinger) *HealthHandler {
	return &HealthHandler{warehouse: warehouse, store: store}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	// Short timeout so health checks never block the probe.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	check := func(name string, p Pinger) {
		if p == nil {
			checks[name] = "disabled"
			return
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks[name] = "ok"
		}
	}
	check("clickhouse", h.warehouse)
	check("postgres", h.store)

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}
