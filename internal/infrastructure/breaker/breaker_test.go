package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
)

func TestBreaker_OpensOnTransportFailures(t *testing.T) {
	b := New("panel", Config{ConsecutiveFailures: 2, Timeout: time.Minute}, nil)
	transportErr := failure.Transport(failure.StorePanel, "list", "acme", "", errors.New("connection refused"))

	assert.ErrorIs(t, b.Do(func() error { return transportErr }), failure.ErrTransport)
	assert.ErrorIs(t, b.Do(func() error { return transportErr }), failure.ErrTransport)
	assert.Equal(t, "open", b.State())

	calls := 0
	err := b.Do(func() error { calls++; return nil })
	assert.ErrorIs(t, err, failure.ErrTransport)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls)
}

func TestBreaker_AuthErrorsDoNotTrip(t *testing.T) {
	b := New("panel", Config{ConsecutiveFailures: 1, Timeout: time.Minute}, nil)
	authErr := failure.FromStatus(failure.StorePanel, "list", "acme", "", 401, "bad token")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return authErr }), failure.ErrAuth)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_PassesResult(t *testing.T) {
	b := New("gateway", DefaultConfig(), nil)

	assert.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, "closed", b.State())
}
