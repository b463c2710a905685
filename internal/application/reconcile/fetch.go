package reconcile

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

// snapshot is everything one cycle needs from both stores
type snapshot struct {
	deposits    []matcher.Deposit
	depositsErr error
	rows        map[bank.Bank][]matcher.QueueRow
	rowErrs     map[bank.Bank]error
}

func (s *snapshot) totalRows() int {
	n := 0
	for _, rows := range s.rows {
		n += len(rows)
	}
	return n
}

// fetchSnapshot reads the deposit list and every bank's pending rows in
// parallel and waits for all of them. Failures are kept per source so one
// failing bank does not cancel the others.
func (r *Reconciler) fetchSnapshot(ctx context.Context) *snapshot {
	banks := r.opts.Banks
	rows := make([][]matcher.QueueRow, len(banks))
	rowErrs := make([]error, len(banks))
	snap := &snapshot{}

	var g errgroup.Group

	g.Go(func() error {
		callCtx, cancel := r.callContext(ctx)
		defer cancel()
		snap.depositsErr = guard(func() (err error) {
			snap.deposits, err = r.panel.ListPendingDeposits(callCtx, r.opts.Tenant)
			return err
		})
		return nil
	})

	for i, b := range banks {
		g.Go(func() error {
			callCtx, cancel := r.callContext(ctx)
			defer cancel()
			rowErrs[i] = guard(func() (err error) {
				rows[i], err = r.queue.ListPendingRows(callCtx, r.opts.Tenant, b)
				return err
			})
			return nil
		})
	}

	_ = g.Wait()

	snap.rows = make(map[bank.Bank][]matcher.QueueRow, len(banks))
	snap.rowErrs = make(map[bank.Bank]error)
	for i, b := range banks {
		if rowErrs[i] != nil {
			snap.rowErrs[b] = rowErrs[i]
			r.logUpstreamError("Failed to fetch queue rows", b, rowErrs[i])
			continue
		}
		snap.rows[b] = rows[i]
	}

	r.logger.Debug("Fetched snapshot",
		"deposits", len(snap.deposits),
		"rows", snap.totalRows(),
		"failed_banks", len(snap.rowErrs),
	)
	return snap
}

// guard runs fn and turns a panic into an error. Fetches run on their own
// goroutines, out of reach of the cycle's recover.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, rec)
		}
	}()
	return fn()
}

// callContext bounds a single upstream call
func (r *Reconciler) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.CallTimeout)
}

// logUpstreamError logs an adapter failure with its classification
func (r *Reconciler) logUpstreamError(msg string, b bank.Bank, err error, args ...any) {
	attrs := []any{
		"kind", failure.KindOf(err),
		"error", err,
	}
	if b != "" {
		attrs = append(attrs, "bank", b)
	}
	if code := failure.StatusCodeOf(err); code != 0 {
		attrs = append(attrs, "status_code", code)
	}
	r.logger.Error(msg, append(attrs, args...)...)
}

// elapsed returns the time since start using the reconciler clock
func (r *Reconciler) elapsed(start time.Time) time.Duration {
	return r.now().Sub(start)
}
