// Package breaker wraps sony/gobreaker for outbound calls to the panel and
// the queue gateway. Only transport failures count against a breaker; an
// auth error means the upstream is reachable.
package breaker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
)

// Config holds circuit breaker settings
type Config struct {
	ConsecutiveFailures uint32        // failures that open the breaker
	Timeout             time.Duration // time spent open before a trial call
	Interval            time.Duration // closed-state counter reset; 0 never resets
	MaxRequests         uint32        // trial calls allowed while half-open
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		ConsecutiveFailures: 5,
		Timeout:             30 * time.Second,
		MaxRequests:         1,
	}
}

// Breaker guards one upstream
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// New creates a breaker. State changes are logged at WARN.
func New(name string, cfg Config, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultConfig().ConsecutiveFailures
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, failure.ErrTransport)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do runs fn through the breaker. A rejected call returns an error
// wrapping failure.ErrTransport.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %w", b.name, failure.ErrTransport, err)
	}
	return err
}

// State returns the breaker state as a string (closed, open, half-open)
func (b *Breaker) State() string {
	return b.cb.State().String()
}
