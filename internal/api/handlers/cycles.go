package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/deposit-autoapprove/internal/api/dto"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// CyclesHandler handles reconciliation cycle HTTP requests.
type CyclesHandler struct {
	*Base
}

// NewCyclesHandler creates a new cycles handler.
func NewCyclesHandler(repo storage.Repository) *CyclesHandler {
	return &CyclesHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/cycles - returns recent cycles, newest first.
func (h *CyclesHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}

	params := dto.DefaultCycleListParams()
	params.Tenant = r.URL.Query().Get("tenant")
	params.Status = r.URL.Query().Get("status")
	params.Limit = ParseIntParam(r, "limit", params.Limit)
	params.Offset = ParseIntParam(r, "offset", 0)

	cycles, err := h.repo.ListCycles(storage.CycleFilters{
		Tenant: params.Tenant,
		Status: params.Status,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.CycleListResponse{
		Cycles: make([]dto.CycleResponse, 0, len(cycles)),
		Count:  len(cycles),
	}
	for _, c := range cycles {
		response.Cycles = append(response.Cycles, toCycleResponse(c))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/cycles/{id} - returns a cycle with its outcomes.
func (h *CyclesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("cycle ID is required"))
		return
	}

	cycle, err := h.repo.GetCycle(id)
	if errors.Is(err, storage.ErrNotFound) {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("cycle"))
		return
	}
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	approvals, err := h.repo.ListApprovals(storage.ApprovalFilters{CycleID: id, Limit: 500})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.CycleDetailResponse{
		CycleResponse: toCycleResponse(cycle),
		Approvals:     toApprovalResponses(approvals.Approvals),
	}
	h.WriteJSON(w, http.StatusOK, response)
}

// toCycleResponse converts a storage Cycle to an API response.
func toCycleResponse(c *storage.Cycle) dto.CycleResponse {
	return dto.CycleResponse{
		ID:              c.ID,
		Tenant:          c.Tenant,
		StartedAt:       dto.FormatTime(c.StartedAt),
		CompletedAt:     dto.FormatTime(c.CompletedAt),
		DryRun:          c.DryRun,
		Status:          c.Status,
		DepositsFetched: c.DepositsFetched,
		RowsFetched:     c.RowsFetched,
		Candidates:      c.Candidates,
		Approved:        c.Approved,
		LostRace:        c.LostRace,
		FailedBanks:     c.Failed,
		ErrorMessage:    c.ErrorMessage,
		DurationMs:      c.DurationMs,
	}
}
