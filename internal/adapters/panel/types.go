// Package panel defines the payment-operations backend ("panel") that owns
// the authoritative deposit requests.
package panel

import (
	"context"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

// Status is a panel deposit status code
type Status int

// StatusApproved marks a deposit as confirmed
const StatusApproved Status = 2

// Store is the interface every panel backend must implement
type Store interface {
	// ListPendingDeposits returns the tenant's deposits awaiting
	// confirmation. Records that fail normalization are dropped.
	ListPendingDeposits(ctx context.Context, tenant string) ([]matcher.Deposit, error)

	// SetDepositStatus changes the status of every listed deposit in one call
	SetDepositStatus(ctx context.Context, tenant string, ids []string, status Status) error
}
