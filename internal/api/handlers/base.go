package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/eshaffer321/deposit-autoapprove/internal/api/dto"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	repo storage.Repository
}

// NewBase creates a new base handler with the given repository.
// repo may be nil when the audit trail is disabled.
func NewBase(repo storage.Repository) *Base {
	return &Base{repo: repo}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// requireRepo writes 503 and returns false when there is no audit trail.
func (b *Base) requireRepo(w http.ResponseWriter) bool {
	if b.repo == nil {
		b.WriteError(w, http.StatusServiceUnavailable, dto.UnavailableError())
		return false
	}
	return true
}

// ParseIntParam parses an integer query parameter with a default value.
// Negative values are treated as invalid.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return defaultVal
	}
	return parsed
}
