// Package httpclient implements panel.Store over the panel's HTTP API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/panel"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/normalize"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/breaker"
)

const (
	listPath   = "/sse/wl/init?dp=true"
	statusPath = "/deposit/auto-approval"

	// DefaultTimeout bounds each panel call
	DefaultTimeout = 20 * time.Second
)

// Client is an HTTP panel client for one tenant's backend
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *breaker.Breaker
	logger     *slog.Logger
}

var _ panel.Store = (*Client)(nil)

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

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a panel client. The token is sent verbatim in the
// Authorization header.
func NewClient(baseURL, token string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = breaker.New("panel", breaker.DefaultConfig(), c.logger)
	}
	return c
}

// ListPendingDeposits implements panel.Store
func (c *Client) ListPendingDeposits(ctx context.Context, tenant string) ([]matcher.Deposit, error) {
	const op = "list_deposits"

	var body []byte
	err := c.breaker.Do(func() error {
		var err error
		body, err = c.send(ctx, op, tenant, http.MethodGet, listPath, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	var env depositsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &failure.UpstreamError{
			Store:  failure.StorePanel,
			Op:     op,
			Tenant: tenant,
			Kind:   failure.ErrMalformedRecord,
			Err:    fmt.Errorf("decode deposits: %w", err),
		}
	}

	records := env.Data.Data.Deposits
	deposits := make([]matcher.Deposit, 0, len(records))
	dropped := 0
	for _, r := range records {
		d, err := toDeposit(r)
		if err != nil {
			dropped++
			c.logger.Debug("Dropped panel deposit",
				"tenant", tenant,
				"deposit_id", string(r.ID),
				"error", err,
			)
			continue
		}
		deposits = append(deposits, d)
	}

	if dropped > 0 {
		c.logger.Warn("Dropped malformed panel deposits",
			"tenant", tenant,
			"dropped", dropped,
			"kept", len(deposits),
		)
	}
	return deposits, nil
}

// SetDepositStatus implements panel.Store
func (c *Client) SetDepositStatus(ctx context.Context, tenant string, ids []string, status panel.Status) error {
	const op = "set_status"

	if len(ids) == 0 {
		return nil
	}

	updates := make([]statusUpdate, 0, len(ids))
	for _, id := range ids {
		updates = append(updates, statusUpdate{ID: encodeID(id), Status: int(status)})
	}
	payload, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}

	return c.breaker.Do(func() error {
		_, err := c.send(ctx, op, tenant, http.MethodPost, statusPath, payload)
		return err
	})
}

func (c *Client) send(ctx context.Context, op, tenant, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.Transport(failure.StorePanel, op, tenant, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Transport(failure.StorePanel, op, tenant, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failure.FromStatus(failure.StorePanel, op, tenant, "", resp.StatusCode, string(body))
	}
	return body, nil
}

// toDeposit normalizes one panel record
func toDeposit(r depositRecord) (matcher.Deposit, error) {
	if r.ID == "" {
		return matcher.Deposit{}, fmt.Errorf("%w: missing id", failure.ErrMalformedRecord)
	}

	username := strings.TrimSpace(r.Player.Username)
	if username == "" {
		return matcher.Deposit{}, fmt.Errorf("%w: missing username", failure.ErrMalformedRecord)
	}

	b, err := bank.Parse(r.CompanyBank.Name)
	if err != nil {
		return matcher.Deposit{}, fmt.Errorf("%w: %w", failure.ErrMalformedRecord, err)
	}

	name, err := normalize.Name(r.PlayerAccountName)
	if err != nil {
		return matcher.Deposit{}, fmt.Errorf("%w: account name: %w", failure.ErrMalformedRecord, err)
	}

	if !r.Amount.Valid || r.Amount.Decimal.IsNegative() || !r.Amount.Decimal.IsInteger() {
		return matcher.Deposit{}, fmt.Errorf("%w: amount %q", failure.ErrMalformedRecord, r.Amount.Decimal.String())
	}

	return matcher.Deposit{
		ID:       string(r.ID),
		Username: username,
		Name:     name,
		Bank:     b,
		Coin:     r.Amount.Decimal.IntPart(),
	}, nil
}
