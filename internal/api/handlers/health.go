package handlers

import (
	"net/http"

	"github.com/eshaffer321/deposit-autoapprove/internal/api/dto"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	*Base
}

// NewHealthHandler creates a new health handler. repo may be nil.
func NewHealthHandler(repo storage.Repository) *HealthHandler {
	return &HealthHandler{Base: NewBase(repo)}
}

// ServeHTTP handles the health check request. The last cycle time is
// included when the audit trail is available; a storage error does not
// make the process unhealthy.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := dto.NewHealthResponse()

	if h.repo != nil {
		if stats, err := h.repo.GetStats(); err == nil && stats.LastCycleAt != nil {
			response.LastCycleAt = dto.FormatTime(*stats.LastCycleAt)
		}
	}

	h.WriteJSON(w, http.StatusOK, response)
}
