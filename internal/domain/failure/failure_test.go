package failure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
)

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, Classify(http.StatusUnauthorized), ErrAuth)
	assert.ErrorIs(t, Classify(http.StatusForbidden), ErrAuth)
	assert.ErrorIs(t, Classify(http.StatusBadGateway), ErrTransport)
	assert.ErrorIs(t, Classify(http.StatusNotFound), ErrTransport)
}

func TestUpstreamError_Unwrap(t *testing.T) {
	err := Transport(StoreQueue, "list_rows", "acme", bank.BCA, context.DeadlineExceeded)

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrAuth)

	wrapped := fmt.Errorf("fetch rows: %w", err)
	var ue *UpstreamError
	assert.True(t, errors.As(wrapped, &ue))
	assert.Equal(t, bank.BCA, ue.Bank)
}

func TestFromStatus(t *testing.T) {
	err := FromStatus(StorePanel, "set_status", "acme", "", http.StatusUnauthorized, " invalid token ")

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, http.StatusUnauthorized, StatusCodeOf(err))
	assert.Equal(t, "auth", KindOf(err))
	assert.Equal(t, "panel set_status tenant=acme status=401: auth error: invalid token", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "transport", KindOf(Transport(StorePanel, "list", "", "", errors.New("boom"))))
	assert.Equal(t, "unknown", KindOf(errors.New("boom")))
	assert.Equal(t, 0, StatusCodeOf(errors.New("boom")))
}
