package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/deposit-autoapprove/internal/api/dto"
	"github.com/eshaffer321/deposit-autoapprove/internal/api/handlers"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	t.Run("returns 200 OK with health status", func(t *testing.T) {
		handler := handlers.NewHealthHandler(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response dto.HealthResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "ok", response.Status)
		assert.NotEmpty(t, response.Timestamp)
		assert.Empty(t, response.LastCycleAt)
	})

	t.Run("reports last cycle when audit trail is available", func(t *testing.T) {
		repo := storage.NewMockRepository()
		started := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
		require.NoError(t, repo.StartCycle(&storage.Cycle{ID: "c1", Tenant: "acme", StartedAt: started}))
		handler := handlers.NewHealthHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		var response dto.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "2025-03-01T08:30:00Z", response.LastCycleAt)
	})
}
