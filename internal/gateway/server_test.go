package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

type stubStore struct {
	rows    []matcher.QueueRow
	applied []queue.Write
	err     error
	writes  []queue.Write
}

func (s *stubStore) ListPendingRows(context.Context, string, bank.Bank) ([]matcher.QueueRow, error) {
	return s.rows, s.err
}

func (s *stubStore) WriteIdentifiers(_ context.Context, _ string, _ bank.Bank, writes []queue.Write) ([]queue.Write, error) {
	s.writes = writes
	return s.applied, s.err
}

func serve(t *testing.T, store queue.Store, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	registry := queue.StaticRegistry{"acme": {bank.DANA: {DocumentID: "doc", SheetIndex: 2}}}
	srv := NewServer(DefaultConfig(), store, registry, nil)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := serve(t, &stubStore{}, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ListRows(t *testing.T) {
	store := &stubStore{rows: []matcher.QueueRow{{Name: "BUDI", Coin: 100, Row: 12, Bank: bank.BRI}}}

	rec := serve(t, store, http.MethodGet, "/rows?tenant=acme&bank=bri", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RowsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, bank.BRI, resp.Bank)
	assert.Equal(t, store.rows, resp.Rows)
}

func TestServer_ListRows_EmptyIsArray(t *testing.T) {
	rec := serve(t, &stubStore{}, http.MethodGet, "/rows?tenant=acme&bank=BCA", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":[]`)
}

func TestServer_ListRows_BadRequest(t *testing.T) {
	for _, target := range []string{"/rows?bank=BCA", "/rows?tenant=acme&bank=CIMB"} {
		rec := serve(t, &stubStore{}, http.MethodGet, target, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), CodeBadRequest)
	}
}

func TestServer_WriteIdentifiers(t *testing.T) {
	store := &stubStore{applied: []queue.Write{{Row: 12, Identifier: "player1"}}}
	body := `{"tenant":"acme","bank":"BCA","writes":[{"row":12,"identifier":"player1"},{"row":14,"identifier":"player2"}]}`

	rec := serve(t, store, http.MethodPost, "/rows/identifiers", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp WriteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, store.applied, resp.Applied)
	assert.Len(t, store.writes, 2)
}

func TestServer_WriteIdentifiers_Invalid(t *testing.T) {
	tests := []string{
		`not json`,
		`{"tenant":"","bank":"BCA","writes":[]}`,
		`{"tenant":"acme","bank":"bca","writes":[{"row":3,"identifier":"x"}]}`,
		`{"tenant":"acme","bank":"BCA","writes":[{"row":0,"identifier":"x"}]}`,
	}
	for _, body := range tests {
		rec := serve(t, &stubStore{}, http.MethodPost, "/rows/identifiers", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestServer_Registry(t *testing.T) {
	rec := serve(t, &stubStore{}, http.MethodGet, "/registry/acme", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RegistryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, queue.Location{DocumentID: "doc", SheetIndex: 2}, resp.Locations[bank.DANA])
}

func TestServer_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"auth", failure.FromStatus(failure.StoreQueue, "list_rows", "acme", bank.BCA, 401, ""), http.StatusBadGateway, CodeUpstreamAuth},
		{"transport", failure.Transport(failure.StoreQueue, "list_rows", "acme", bank.BCA, errors.New("timeout")), http.StatusBadGateway, CodeUpstreamTransport},
		{"malformed", failure.ErrMalformedRecord, http.StatusUnprocessableEntity, CodeMalformedRecord},
		{"other", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &stubStore{err: tt.err}, http.MethodGet, "/rows?tenant=acme&bank=BCA", "")

			assert.Equal(t, tt.status, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	srv := NewServer(cfg, &stubStore{}, queue.StaticRegistry{}, nil)

	require.NoError(t, srv.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Shutdown")
	}
}
