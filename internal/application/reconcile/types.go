package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/panel"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/backoff"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// Options holds reconciliation configuration
type Options struct {
	Tenant         string
	Banks          []bank.Bank // processed in this order
	MinCoin        int64
	ApprovedStatus panel.Status
	CallTimeout    time.Duration // bound on every upstream call; 0 disables
	FailureBackoff time.Duration // base delay after a failed cycle
	MaxBackoff     time.Duration
	IdleDelay      time.Duration // delay after a successful or empty cycle
	DryRun         bool          // match and log, write nothing
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		Banks:          bank.All(),
		MinCoin:        matcher.DefaultMinCoin,
		ApprovedStatus: panel.StatusApproved,
		CallTimeout:    20 * time.Second,
		FailureBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

func (o Options) validate() error {
	if o.Tenant == "" {
		return errors.New("tenant is required")
	}
	if len(o.Banks) == 0 {
		return errors.New("at least one bank is required")
	}
	for _, b := range o.Banks {
		if !b.Valid() {
			return fmt.Errorf("bank %q: %w", b, bank.ErrUnknownBank)
		}
	}
	return nil
}

// BankResult is the outcome of one bank's reconciliation step
type BankResult struct {
	Bank       bank.Bank
	Rows       int
	Candidates int
	Approved   []string // usernames confirmed in both stores
	LostRace   int      // rows filled by another writer first
	FetchErr   error
	QueueErr   error
	PanelErr   error
}

// Failed reports whether any upstream call for this bank failed
func (b BankResult) Failed() bool {
	return b.FetchErr != nil || b.QueueErr != nil || b.PanelErr != nil
}

// CycleResult summarizes one reconciliation cycle
type CycleResult struct {
	ID        string
	Tenant    string
	StartedAt time.Time
	Duration  time.Duration
	Deposits  int
	Rows      int
	Empty     bool // no pending rows in any bank; nothing was matched
	DryRun    bool
	Banks     []BankResult

	recorded bool // cycle row written to the audit trail
}

// Candidates returns the number of candidates across banks
func (r *CycleResult) Candidates() int {
	n := 0
	for _, b := range r.Banks {
		n += b.Candidates
	}
	return n
}

// Approved returns the number of approvals across banks
func (r *CycleResult) Approved() int {
	n := 0
	for _, b := range r.Banks {
		n += len(b.Approved)
	}
	return n
}

// LostRace returns the number of lost races across banks
func (r *CycleResult) LostRace() int {
	n := 0
	for _, b := range r.Banks {
		n += b.LostRace
	}
	return n
}

// FailedBanks returns the number of banks with a failed upstream call
func (r *CycleResult) FailedBanks() int {
	n := 0
	for _, b := range r.Banks {
		if b.Failed() {
			n++
		}
	}
	return n
}

// Reconciler runs reconciliation cycles between the panel and the queue
type Reconciler struct {
	panel   panel.Store
	queue   queue.Store
	storage storage.Repository // optional audit trail
	matcher *matcher.Matcher
	opts    Options
	backoff backoff.Policy
	logger  *slog.Logger

	// Replaceable for tests
	now   func() time.Time
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReconciler creates a reconciler. repo may be nil.
func NewReconciler(p panel.Store, q queue.Store, repo storage.Repository, opts Options, logger *slog.Logger) (*Reconciler, error) {
	if p == nil || q == nil {
		return nil, errors.New("panel and queue stores are required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		panel:   p,
		queue:   q,
		storage: repo,
		matcher: matcher.NewMatcher(matcher.Config{MinCoin: opts.MinCoin}),
		opts:    opts,
		backoff: backoff.Policy{Base: opts.FailureBackoff, Max: opts.MaxBackoff},
		logger:  logger.With("tenant", opts.Tenant),
		now:     time.Now,
		newID:   uuid.NewString,
		sleep:   backoff.Sleep,
	}, nil
}
