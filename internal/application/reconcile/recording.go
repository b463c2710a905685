package reconcile

import (
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// Audit trail helpers. Storage is optional and a recording failure never
// affects reconciliation; it is logged and the cycle carries on.
//
// A cycle row is written lazily, on the first approval or at completion,
// and quiet cycles are never written. With no idle delay the loop turns
// thousands of times a minute against an idle queue.

// quiet reports whether a cycle has nothing worth auditing: it succeeded,
// matched nothing and no bank failed.
func quiet(result *CycleResult, cycleErr error) bool {
	return cycleErr == nil && result.Candidates() == 0 && result.FailedBanks() == 0
}

func (r *Reconciler) recordStart(result *CycleResult) {
	if r.storage == nil || result.recorded {
		return
	}
	result.recorded = true
	err := r.storage.StartCycle(&storage.Cycle{
		ID:        result.ID,
		Tenant:    result.Tenant,
		StartedAt: result.StartedAt,
		DryRun:    result.DryRun,
		Status:    storage.CycleRunning,
	})
	if err != nil {
		r.logger.Warn("Failed to record cycle start", "cycle_id", result.ID, "error", err)
	}
}

func (r *Reconciler) recordApprovals(result *CycleResult, approvals []storage.Approval) {
	if r.storage == nil || len(approvals) == 0 {
		return
	}
	r.recordStart(result)
	if err := r.storage.SaveApprovals(approvals); err != nil {
		r.logger.Warn("Failed to record approvals",
			"cycle_id", result.ID,
			"count", len(approvals),
			"error", err,
		)
	}
}

func (r *Reconciler) recordCompletion(result *CycleResult, cycleErr error) {
	if r.storage == nil || quiet(result, cycleErr) {
		return
	}
	r.recordStart(result)

	c := &storage.Cycle{
		ID:              result.ID,
		Tenant:          result.Tenant,
		StartedAt:       result.StartedAt,
		CompletedAt:     result.StartedAt.Add(result.Duration),
		DryRun:          result.DryRun,
		Status:          Status(result, cycleErr),
		DepositsFetched: result.Deposits,
		RowsFetched:     result.Rows,
		Candidates:      result.Candidates(),
		Approved:        result.Approved(),
		LostRace:        result.LostRace(),
		Failed:          result.FailedBanks(),
		DurationMs:      result.Duration.Milliseconds(),
	}
	if cycleErr != nil {
		c.ErrorMessage = cycleErr.Error()
	}

	if err := r.storage.CompleteCycle(c); err != nil {
		r.logger.Warn("Failed to record cycle completion", "cycle_id", result.ID, "error", err)
	}
}
