package handlers

import (
	"context"
	"net/http"

	"github.com/nyaya-labs/sahayak/internal/api"
	"github.com/nyaya-labs/sahayak/internal/service"
)

type StatusService interface {
	GetStatus(ctx context.Context, providerConfigured bool) (service.Status, error)
}

type StatusHandler struct {
	svc StatusService

	// providerConfigured is fixed at startup; readiness only flips with
	// the indexed segment count.
	providerConfigured bool
}

func NewStatusHandler(svc StatusService, providerConfigured bool) *StatusHandler {
	return &StatusHandler{svc: svc, providerConfigured: providerConfigured}
}

type StatusResponse struct {
	Status          string `json:"status"`
	Ready           bool   `json:"ready"`
	IndexedSegments int    `json:"indexed_segments"`
	ModelConfigured bool   `json:"model_provider_configured"`
}

// Status handles GET /status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.GetStatus(r.Context(), h.providerConfigured)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	state := "indexing"
	if status.Ready {
		state = "ready"
	}
	api.Success(w, http.StatusOK, StatusResponse{
		Status:          state,
		Ready:           status.Ready,
		IndexedSegments: status.IndexedSegments,
		ModelConfigured: h.providerConfigured,
	})
}
