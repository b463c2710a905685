package handlers

import (
	"net/http"

	"github.com/eshaffer321/deposit-autoapprove/internal/api/dto"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// ApprovalsHandler handles write-back audit HTTP requests.
type ApprovalsHandler struct {
	*Base
}

// NewApprovalsHandler creates a new approvals handler.
func NewApprovalsHandler(repo storage.Repository) *ApprovalsHandler {
	return &ApprovalsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/approvals - supports cycle_id, tenant, bank,
// outcome, limit and offset filters.
func (h *ApprovalsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}

	q := r.URL.Query()
	params := dto.DefaultApprovalListParams()
	params.CycleID = q.Get("cycle_id")
	params.Tenant = q.Get("tenant")
	params.Outcome = q.Get("outcome")
	params.Limit = ParseIntParam(r, "limit", params.Limit)
	params.Offset = ParseIntParam(r, "offset", 0)

	if raw := q.Get("bank"); raw != "" {
		b, err := bank.Parse(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
			return
		}
		params.Bank = string(b)
	}

	result, err := h.repo.ListApprovals(storage.ApprovalFilters{
		CycleID: params.CycleID,
		Tenant:  params.Tenant,
		Bank:    params.Bank,
		Outcome: params.Outcome,
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ApprovalListResponse{
		Approvals:  toApprovalResponses(result.Approvals),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

func toApprovalResponses(approvals []*storage.Approval) []dto.ApprovalResponse {
	out := make([]dto.ApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		out = append(out, dto.ApprovalResponse{
			ID:           a.ID,
			CycleID:      a.CycleID,
			Tenant:       a.Tenant,
			Bank:         a.Bank,
			DepositID:    a.DepositID,
			Username:     a.Username,
			Row:          a.Row,
			Outcome:      a.Outcome,
			ErrorMessage: a.ErrorMessage,
			CreatedAt:    dto.FormatTime(a.CreatedAt),
		})
	}
	return out
}
