// Copyright 2025 Certen Protocol

package server

import (
	"log"
	"net/http"
	"time"

	"github.com/certen/contract-coordinator/pkg/database"
)

const serviceVersion = "1.0.0"

// HealthHandlers serves GET /health.
type HealthHandlers struct {
	logger *log.Logger

	// audit is optional: nil when the service was started without
	// DATABASE_URL, in which case health reports liveness only.
	audit *database.Client
}

// NewHealthHandlers creates the health handler group. audit may be nil.
func NewHealthHandlers(logger *log.Logger, audit *database.Client) *HealthHandlers {
	return &HealthHandlers{logger: logger, audit: audit}
}

// HandleHealth reports service liveness and, when the audit ledger is
// configured, its connectivity and connection-pool stats.
func (h *HealthHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}

	body := map[string]any{
		"service":   "contract-coordinator",
		"version":   serviceVersion,
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	}

	if h.audit != nil {
		status, err := h.audit.Health(r.Context())
		if err != nil {
			h.logger.Printf("audit health check failed: %v", err)
			body["status"] = "degraded"
			body["audit"] = map[string]any{"healthy": false, "error": err.Error()}
		} else {
			body["audit"] = status
			if !status.Healthy {
				body["status"] = "degraded"
			}
		}
	}

	writeJSON(w, h.logger, http.StatusOK, body)
}
