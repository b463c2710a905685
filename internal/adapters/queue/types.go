package queue

import (
	"context"
	"fmt"
	"slices"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

// Store is the interface every queue backend must implement
type Store interface {
	// ListPendingRows returns rows whose identifier cell is empty, already
	// normalized and tagged with b. Rows that fail normalization are dropped.
	ListPendingRows(ctx context.Context, tenant string, b bank.Bank) ([]matcher.QueueRow, error)

	// WriteIdentifiers writes each identifier into its row only if the
	// identifier cell is still empty. It returns the writes that were
	// applied; rows already holding a value are left untouched and omitted.
	WriteIdentifiers(ctx context.Context, tenant string, b bank.Bank, writes []Write) ([]Write, error)
}

// Write is one conditional identifier write
type Write struct {
	Row        int    `json:"row"`
	Identifier string `json:"identifier"`
}

// Location is where a bank's queue lives
type Location struct {
	DocumentID string `json:"document_id"`
	SheetIndex int    `json:"sheet_index"` // 1-based
}

// Registry resolves a tenant's per-bank queue locations
type Registry interface {
	Lookup(ctx context.Context, tenant string) (map[bank.Bank]Location, error)
}

// PrepareWrites validates writes and returns them ordered by row, ascending.
// A repeated row keeps its first identifier.
func PrepareWrites(writes []Write) ([]Write, error) {
	seen := make(map[int]bool, len(writes))
	out := make([]Write, 0, len(writes))
	for _, w := range writes {
		if w.Row < 1 {
			return nil, fmt.Errorf("invalid row %d", w.Row)
		}
		if w.Identifier == "" {
			return nil, fmt.Errorf("empty identifier for row %d", w.Row)
		}
		if seen[w.Row] {
			continue
		}
		seen[w.Row] = true
		out = append(out, w)
	}

	slices.SortStableFunc(out, func(a, b Write) int {
		return a.Row - b.Row
	})
	return out, nil
}

// RowSpan returns the first and last row covered by sorted writes
func RowSpan(sorted []Write) (first, last int) {
	if len(sorted) == 0 {
		return 0, 0
	}
	return sorted[0].Row, sorted[len(sorted)-1].Row
}
