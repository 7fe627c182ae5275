// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/calgrid/internal/app"
)

// SyncDependencies defines the interface for triggering an ICS import.
type SyncDependencies interface {
	SyncICS(ctx context.Context) (service.SyncReport, error)
}

// SyncHandler handles sync requests.
type SyncHandler struct {
	deps SyncDependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps SyncDependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

// HandleSync handles POST /sync requests. Partial failures answer 502 with
// the per-source report.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.SyncICS(r.Context())
	switch {
	case errors.Is(err, service.ErrSync):
		writeJSON(w, http.StatusBadGateway, report)
	case err != nil:
		writeUpstreamError(w, Wrap("api.sync", err))
	default:
		writeJSON(w, http.StatusOK, report)
	}
}
