package gateway

import (
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeBadRequest        = "bad_request"
	CodeUpstreamAuth      = "upstream_auth"
	CodeUpstreamTransport = "upstream_transport"
	CodeMalformedRecord   = "malformed_record"
	CodeInternal          = "internal_error"
)

// RowsResponse is returned by GET /rows
type RowsResponse struct {
	Tenant string             `json:"tenant"`
	Bank   bank.Bank          `json:"bank"`
	Rows   []matcher.QueueRow `json:"rows"`
}

// WriteRequest is the body of POST /rows/identifiers
type WriteRequest struct {
	Tenant string        `json:"tenant"`
	Bank   bank.Bank     `json:"bank"`
	Writes []queue.Write `json:"writes"`
}

// WriteResponse lists the writes that landed in empty cells
type WriteResponse struct {
	Applied []queue.Write `json:"applied"`
}

// RegistryResponse is returned by GET /registry/:tenant
type RegistryResponse struct {
	Tenant    string                        `json:"tenant"`
	Locations map[bank.Bank]queue.Location `json:"locations"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Status is the upstream HTTP status, when the queue backend reported one
	Status int `json:"status,omitempty"`
}
