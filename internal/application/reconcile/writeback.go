package reconcile

import (
	"context"
	"slices"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
	"github.com/eshaffer321/deposit-autoapprove/internal/infrastructure/storage"
)

// reconcileBank matches one bank's rows and writes the result back to both
// stores. The panel is only told about deposits whose queue row was
// actually written by this cycle.
func (r *Reconciler) reconcileBank(ctx context.Context, cycleID string, b bank.Bank, deposits []matcher.Deposit, rows []matcher.QueueRow) (BankResult, []storage.Approval) {
	result := BankResult{Bank: b, Rows: len(rows)}

	candidates := r.matcher.Match(deposits, rows)
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		return result, nil
	}

	slices.SortFunc(candidates, func(a, c matcher.Candidate) int {
		return a.Row - c.Row
	})

	audit := func(c matcher.Candidate, outcome string, err error) storage.Approval {
		a := storage.Approval{
			CycleID:   cycleID,
			Tenant:    r.opts.Tenant,
			Bank:      string(b),
			DepositID: c.DepositID,
			Username:  c.Username,
			Row:       c.Row,
			Outcome:   outcome,
		}
		if err != nil {
			a.ErrorMessage = err.Error()
		}
		return a
	}

	var approvals []storage.Approval

	if r.opts.DryRun {
		for _, c := range candidates {
			r.logger.Info("Dry run: would approve deposit",
				"bank", b,
				"deposit_id", c.DepositID,
				"username", c.Username,
				"row", c.Row,
			)
			approvals = append(approvals, audit(c, storage.OutcomeDryRun, nil))
		}
		return result, approvals
	}

	writes := make([]queue.Write, len(candidates))
	for i, c := range candidates {
		writes[i] = queue.Write{Row: c.Row, Identifier: c.Username}
	}

	writeCtx, cancel := r.callContext(ctx)
	applied, err := r.queue.WriteIdentifiers(writeCtx, r.opts.Tenant, b, writes)
	cancel()
	if err != nil {
		result.QueueErr = err
		r.logUpstreamError("Failed to write queue identifiers", b, err, "candidates", len(candidates))
		for _, c := range candidates {
			approvals = append(approvals, audit(c, storage.OutcomeQueueFailed, err))
		}
		return result, approvals
	}

	written := make(map[int]bool, len(applied))
	for _, w := range applied {
		written[w.Row] = true
	}

	var confirmed []matcher.Candidate
	for _, c := range candidates {
		if !written[c.Row] {
			result.LostRace++
			r.logger.Debug("Queue row already claimed",
				"bank", b,
				"row", c.Row,
				"deposit_id", c.DepositID,
			)
			approvals = append(approvals, audit(c, storage.OutcomeLostRace, nil))
			continue
		}
		confirmed = append(confirmed, c)
	}

	if len(confirmed) == 0 {
		return result, approvals
	}

	ids := make([]string, len(confirmed))
	usernames := make([]string, len(confirmed))
	for i, c := range confirmed {
		ids[i] = c.DepositID
		usernames[i] = c.Username
	}

	panelCtx, cancel := r.callContext(ctx)
	err = r.panel.SetDepositStatus(panelCtx, r.opts.Tenant, ids, r.opts.ApprovedStatus)
	cancel()
	if err != nil {
		// Rows stay claimed; an operator has to approve these by hand
		result.PanelErr = err
		r.logUpstreamError("Queue updated but panel approval failed", b, err,
			"deposit_ids", ids,
			"usernames", usernames,
		)
		for _, c := range confirmed {
			approvals = append(approvals, audit(c, storage.OutcomePanelFailed, err))
		}
		return result, approvals
	}

	result.Approved = usernames
	r.logger.Info("Approved deposits",
		"bank", b,
		"count", len(confirmed),
		"usernames", usernames,
	)
	for _, c := range confirmed {
		approvals = append(approvals, audit(c, storage.OutcomeApproved, nil))
	}

	return result, approvals
}
