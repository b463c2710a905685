// Package remote implements queue.Store and queue.Registry against a
// queue gateway.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
	"github.com/eshaffer321/deposit-autoapprove/internal/gateway"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/breaker"
)

// Client talks to a queue gateway
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *breaker.Breaker
	logger     *slog.Logger
}

var (
	_ queue.Store    = (*Client)(nil)
	_ queue.Registry = (*Client)(nil)
)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBreaker overrides the default circuit breaker
func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a gateway client
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = breaker.New("queue-gateway", breaker.DefaultConfig(), logger)
	}
	return c
}

// ListPendingRows implements queue.Store
func (c *Client) ListPendingRows(ctx context.Context, tenant string, b bank.Bank) ([]matcher.QueueRow, error) {
	q := url.Values{}
	q.Set("tenant", tenant)
	q.Set("bank", string(b))

	var resp gateway.RowsResponse
	if err := c.do(ctx, "list_rows", tenant, b, http.MethodGet, "/rows?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// WriteIdentifiers implements queue.Store
func (c *Client) WriteIdentifiers(ctx context.Context, tenant string, b bank.Bank, writes []queue.Write) ([]queue.Write, error) {
	req := gateway.WriteRequest{Tenant: tenant, Bank: b, Writes: writes}

	var resp gateway.WriteResponse
	if err := c.do(ctx, "write_identifiers", tenant, b, http.MethodPost, "/rows/identifiers", req, &resp); err != nil {
		return nil, err
	}
	return resp.Applied, nil
}

// Lookup implements queue.Registry
func (c *Client) Lookup(ctx context.Context, tenant string) (map[bank.Bank]queue.Location, error) {
	var resp gateway.RegistryResponse
	if err := c.do(ctx, "registry_lookup", tenant, "", http.MethodGet, "/registry/"+url.PathEscape(tenant), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Locations, nil
}

func (c *Client) do(ctx context.Context, op, tenant string, b bank.Bank, method, path string, body, out any) error {
	return c.breaker.Do(func() error {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("encode %s request: %w", op, err)
			}
			reader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build %s request: %w", op, err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return failure.Transport(failure.StoreQueue, op, tenant, b, err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return failure.Transport(failure.StoreQueue, op, tenant, b, err)
		}

		if resp.StatusCode >= 300 {
			return decodeError(op, tenant, b, resp.StatusCode, data)
		}

		if err := json.Unmarshal(data, out); err != nil {
			return &failure.UpstreamError{
				Store:      failure.StoreQueue,
				Op:         op,
				Tenant:     tenant,
				Bank:       b,
				Kind:       failure.ErrMalformedRecord,
				StatusCode: resp.StatusCode,
				Err:        err,
			}
		}
		return nil
	})
}

// decodeError restores the failure kind the gateway reported
func decodeError(op, tenant string, b bank.Bank, status int, data []byte) error {
	var e gateway.ErrorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Code == "" {
		return failure.FromStatus(failure.StoreQueue, op, tenant, b, status, string(data))
	}

	ue := &failure.UpstreamError{
		Store:      failure.StoreQueue,
		Op:         op,
		Tenant:     tenant,
		Bank:       b,
		Kind:       failure.ErrTransport,
		StatusCode: status,
		Err:        errors.New(e.Message),
	}
	if e.Status != 0 {
		ue.StatusCode = e.Status
	}

	switch e.Code {
	case gateway.CodeUpstreamAuth:
		ue.Kind = failure.ErrAuth
	case gateway.CodeMalformedRecord:
		ue.Kind = failure.ErrMalformedRecord
	case gateway.CodeBadRequest:
		return fmt.Errorf("gateway rejected %s: %s", op, e.Message)
	}
	return ue
}
