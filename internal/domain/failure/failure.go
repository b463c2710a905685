// Package failure defines the error taxonomy shared by the store adapters
// and the reconciler.
//
// Transport and auth failures abort the current bank step (or snapshot
// fetch) only. Malformed records and partial writes are absorbed where they
// happen and never reach the loop as errors.
package failure

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
)

var (
	// ErrTransport covers network errors, timeouts and unexpected upstream responses
	ErrTransport = errors.New("transport error")

	// ErrAuth is returned when a store rejects our credential
	ErrAuth = errors.New("auth error")

	// ErrMalformedRecord marks a row or deposit missing required fields
	ErrMalformedRecord = errors.New("malformed record")

	// ErrPartialWrite marks a batched write that confirmed fewer rows than requested
	ErrPartialWrite = errors.New("partial write")
)

// Store names used in UpstreamError
const (
	StoreQueue       = "queue"
	StorePanel       = "panel"
	StoreCredentials = "credentials"
)

// UpstreamError carries enough context to diagnose a failed store call
type UpstreamError struct {
	Store      string
	Op         string
	Tenant     string
	Bank       bank.Bank
	Kind       error // ErrTransport or ErrAuth
	StatusCode int   // 0 when no HTTP response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Store, e.Op)
	if e.Tenant != "" {
		fmt.Fprintf(&b, " tenant=%s", e.Tenant)
	}
	if e.Bank != "" {
		fmt.Fprintf(&b, " bank=%s", e.Bank)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *UpstreamError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Transport builds a transport-kind UpstreamError
func Transport(store, op, tenant string, b bank.Bank, err error) *UpstreamError {
	return &UpstreamError{Store: store, Op: op, Tenant: tenant, Bank: b, Kind: ErrTransport, Err: err}
}

// FromStatus builds an UpstreamError for a non-2xx HTTP response
func FromStatus(store, op, tenant string, b bank.Bank, statusCode int, body string) *UpstreamError {
	var cause error
	if body = strings.TrimSpace(body); body != "" {
		if len(body) > 256 {
			body = body[:256]
		}
		cause = errors.New(body)
	}
	return &UpstreamError{
		Store:      store,
		Op:         op,
		Tenant:     tenant,
		Bank:       b,
		Kind:       Classify(statusCode),
		StatusCode: statusCode,
		Err:        cause,
	}
}

// Classify maps an HTTP status code to a failure kind
func Classify(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	default:
		return ErrTransport
	}
}

// KindOf returns a short label for logging: "auth", "transport" or "unknown"
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

// StatusCodeOf returns the HTTP status carried by err, or 0
func StatusCodeOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
