package backoff

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponential(t *testing.T) {
	tests := []struct {
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{time.Second, 0, time.Second},
		{time.Second, 3, 8 * time.Second},
		{time.Second, -1, time.Second},
		{0, 5, 0},
		{time.Hour, 100, time.Duration(math.MaxInt64)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Exponential(tt.base, tt.attempt), "base=%s attempt=%d", tt.base, tt.attempt)
	}
}

func TestFullJitter(t *testing.T) {
	assert.Zero(t, FullJitter(0))
	assert.Zero(t, FullJitter(-time.Second))

	for i := 0; i < 100; i++ {
		d := FullJitter(10 * time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 10*time.Millisecond)
	}
}

func TestPolicy(t *testing.T) {
	p := Policy{Base: time.Second, Max: 30 * time.Second}

	assert.Equal(t, time.Second, p.Ceiling(0))
	assert.Equal(t, 16*time.Second, p.Ceiling(4))
	assert.Equal(t, 30*time.Second, p.Ceiling(5))
	assert.Equal(t, 30*time.Second, p.Ceiling(1000))

	for attempt := 0; attempt < 10; attempt++ {
		assert.Less(t, p.Delay(attempt), p.Ceiling(attempt)+1)
	}

	assert.Zero(t, Policy{}.Delay(3))
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}
