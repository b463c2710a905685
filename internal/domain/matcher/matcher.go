// Package matcher pairs panel deposits with queue rows of the same bank.
//
// The matcher uses strict, greedy first-fit criteria:
//   - Bank must be identical
//   - Amount must be exactly equal (integer comparison)
//   - The deposit's payer name must contain the row's name as a substring
//   - The deposit must not be already claimed by an earlier row
//
// Rows are visited longest name first. A short name is more likely to be a
// substring of unrelated longer names, so specific rows claim their deposit
// before generic ones get a chance to.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	candidates := m.Match(deposits, rows)
//	for _, c := range candidates {
//		// write c.Username into row c.Row, approve c.DepositID
//	}
package matcher

import (
	"slices"
	"strings"
)

// Matcher matches queue rows with panel deposits
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	if config.MinCoin < 0 {
		config.MinCoin = 0
	}
	return &Matcher{
		config: config,
	}
}

// Match returns the approval candidates for one bank's snapshot.
// Each deposit ID appears in at most one candidate. Rows without an
// eligible deposit are left out; they are retried on the next cycle.
func (m *Matcher) Match(deposits []Deposit, rows []QueueRow) []Candidate {
	actionable := m.ActionableRows(rows)
	if len(actionable) == 0 || len(deposits) == 0 {
		return nil
	}

	claimed := make(map[string]bool)
	var candidates []Candidate

	for _, row := range actionable {
		deposit := m.findDeposit(row, deposits, claimed)
		if deposit == nil {
			continue
		}

		claimed[deposit.ID] = true
		candidates = append(candidates, Candidate{
			DepositID: deposit.ID,
			Username:  deposit.Username,
			Bank:      row.Bank,
			Row:       row.Row,
		})
	}

	return candidates
}

// ActionableRows drops rows that are not ready for matching and returns the
// rest ordered by name length, longest first. Ties keep their input order.
func (m *Matcher) ActionableRows(rows []QueueRow) []QueueRow {
	out := make([]QueueRow, 0, len(rows))
	for _, row := range rows {
		if row.Name == "" || row.Coin < m.config.MinCoin || row.Bank == "" {
			continue
		}
		out = append(out, row)
	}

	slices.SortStableFunc(out, func(a, b QueueRow) int {
		return len(b.Name) - len(a.Name)
	})

	return out
}

// findDeposit returns the first unclaimed deposit satisfying row, or nil
func (m *Matcher) findDeposit(row QueueRow, deposits []Deposit, claimed map[string]bool) *Deposit {
	for i := range deposits {
		d := &deposits[i]

		// Skip if already used
		if d.ID == "" || claimed[d.ID] {
			continue
		}

		if d.Bank != row.Bank {
			continue
		}

		if d.Coin < m.config.MinCoin || d.Coin != row.Coin {
			continue
		}

		if !strings.Contains(d.Name, row.Name) {
			continue
		}

		return d
	}

	return nil
}
