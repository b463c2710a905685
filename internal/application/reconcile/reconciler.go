// Package reconcile drives the deposit auto-approval loop.
//
// Each cycle fetches the panel's pending deposits and every bank's pending
// queue rows in parallel, matches them per bank and writes the result back:
// usernames into the queue first, then the approved status into the panel
// for the rows the queue confirmed. No state crosses cycles.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// ErrCyclePanic wraps a panic recovered while running a cycle
var ErrCyclePanic = errors.New("reconcile cycle panicked")

// RunCycle runs one reconciliation cycle. Bank-level failures are logged
// and reported in the result; an error is returned only when the cycle as
// a whole could not run (deposits unavailable, every bank unavailable, or a
// panic).
func (r *Reconciler) RunCycle(ctx context.Context) (result *CycleResult, err error) {
	start := r.now()
	result = &CycleResult{
		ID:        r.newID(),
		Tenant:    r.opts.Tenant,
		StartedAt: start,
		DryRun:    r.opts.DryRun,
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanic, rec)
			r.logger.Error("Recovered from panic in cycle",
				"cycle_id", result.ID,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
		result.Duration = r.elapsed(start)
		r.recordCompletion(result, err)
	}()

	err = r.runCycle(ctx, result)
	return result, err
}

func (r *Reconciler) runCycle(ctx context.Context, result *CycleResult) error {
	snap := r.fetchSnapshot(ctx)
	result.Deposits = len(snap.deposits)
	result.Rows = snap.totalRows()

	if len(snap.rowErrs) == len(r.opts.Banks) {
		errs := make([]error, 0, len(snap.rowErrs))
		for _, b := range r.opts.Banks {
			errs = append(errs, snap.rowErrs[b])
		}
		return fmt.Errorf("fetch queue rows: all %d banks failed: %w", len(errs), errors.Join(errs...))
	}

	if snap.depositsErr != nil {
		r.logUpstreamError("Failed to fetch pending deposits", "", snap.depositsErr)
		return fmt.Errorf("fetch deposits: %w", snap.depositsErr)
	}

	if result.Rows == 0 {
		result.Empty = true
		for _, b := range r.opts.Banks {
			if fetchErr, ok := snap.rowErrs[b]; ok {
				result.Banks = append(result.Banks, BankResult{Bank: b, FetchErr: fetchErr})
			}
		}
		r.logger.Debug("No pending queue rows", "cycle_id", result.ID)
		return nil
	}

	byBank := depositsByBank(snap.deposits)
	for _, b := range r.opts.Banks {
		if fetchErr, ok := snap.rowErrs[b]; ok {
			result.Banks = append(result.Banks, BankResult{Bank: b, FetchErr: fetchErr})
			continue
		}

		bankResult, approvals := r.reconcileBank(ctx, result.ID, b, byBank[b], snap.rows[b])
		result.Banks = append(result.Banks, bankResult)
		r.recordApprovals(result, approvals)
	}

	return nil
}

func depositsByBank(deposits []matcher.Deposit) map[bank.Bank][]matcher.Deposit {
	out := make(map[bank.Bank][]matcher.Deposit)
	for _, d := range deposits {
		out[d.Bank] = append(out[d.Bank], d)
	}
	return out
}

// Run reconciles until ctx is cancelled and then returns ctx.Err(). A
// failed cycle is followed by a jittered exponential delay; the delay
// resets after the next cycle that succeeds.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("Starting reconcile loop",
		"banks", r.opts.Banks,
		"dry_run", r.opts.DryRun,
		"idle_delay", r.opts.IdleDelay,
	)

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := r.RunCycle(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.logger.Info("Reconcile loop stopped", "reason", ctxErr)
			return ctxErr
		}

		delay := r.opts.IdleDelay
		if err != nil {
			delay = r.backoff.Delay(failures)
			failures++
			r.logger.Error("Cycle failed",
				"cycle_id", result.ID,
				"error", err,
				"consecutive_failures", failures,
				"retry_in", delay,
			)
		} else {
			failures = 0
			r.logCycle(result)
		}

		if err := r.sleep(ctx, delay); err != nil {
			r.logger.Info("Reconcile loop stopped", "reason", err)
			return err
		}
	}
}

// logCycle logs a cycle summary. Quiet cycles log at DEBUG so a tight loop
// does not flood the output.
func (r *Reconciler) logCycle(result *CycleResult) {
	attrs := []any{
		"cycle_id", result.ID,
		"deposits", result.Deposits,
		"rows", result.Rows,
		"candidates", result.Candidates(),
		"approved", result.Approved(),
		"lost_race", result.LostRace(),
		"failed_banks", result.FailedBanks(),
		"duration", result.Duration,
	}
	if result.Approved() > 0 || result.FailedBanks() > 0 {
		r.logger.Info("Cycle complete", attrs...)
		return
	}
	r.logger.Debug("Cycle complete", attrs...)
}

// Status returns the audit status a result would be recorded with
func Status(result *CycleResult, err error) string {
	switch {
	case err != nil:
		return storage.CycleFailed
	case result != nil && result.Empty:
		return storage.CycleEmpty
	default:
		return storage.CycleCompleted
	}
}
