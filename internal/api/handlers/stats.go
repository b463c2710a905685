package handlers

import (
	"net/http"
	"sort"

	"github.com/eshaffer321/deposit-autoapprove/internal/api/dto"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// StatsHandler handles stats-related HTTP requests.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/stats - returns aggregate statistics.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.requireRepo(w) {
		return
	}

	stats, err := h.repo.GetStats()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	// Convert bank stats map to a sorted slice for easier frontend consumption
	banks := make([]dto.BankStatsResponse, 0, len(stats.BankStats))
	for b, s := range stats.BankStats {
		banks = append(banks, dto.BankStatsResponse{
			Bank:     b,
			Approved: s.Approved,
			LostRace: s.LostRace,
			Failed:   s.Failed,
		})
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i].Bank < banks[j].Bank })

	outcomes := stats.Outcomes
	if outcomes == nil {
		outcomes = map[string]int{}
	}

	response := dto.StatsResponse{
		TotalCycles:     stats.TotalCycles,
		CompletedCycles: stats.CompletedCycles,
		EmptyCycles:     stats.EmptyCycles,
		FailedCycles:    stats.FailedCycles,
		TotalApprovals:  stats.TotalApprovals,
		Outcomes:        outcomes,
		BankStats:       banks,
	}
	if stats.LastCycleAt != nil {
		response.LastCycleAt = dto.FormatTime(*stats.LastCycleAt)
	}

	h.WriteJSON(w, http.StatusOK, response)
}
