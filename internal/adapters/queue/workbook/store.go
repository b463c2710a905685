// Package workbook implements the queue store on local .xlsx files.
//
// Locations come from a queue.Registry whose document ids are file paths.
// Reads and conditional writes are serialized in-process.
package workbook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/failure"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

// Store reads and writes approval worksheets stored in workbooks
type Store struct {
	registry queue.Registry
	layout   queue.Layout
	logger   *slog.Logger

	mu sync.Mutex
}

var _ queue.Store = (*Store)(nil)

// NewStore creates a workbook-backed queue store
func NewStore(registry queue.Registry, layout queue.Layout, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		registry: registry,
		layout:   layout,
		logger:   logger,
	}
}

// open returns the workbook and the worksheet name for a bank. The caller
// must hold s.mu and close the file.
func (s *Store) open(ctx context.Context, op, tenant string, b bank.Bank) (*excelize.File, string, error) {
	loc, err := queue.Resolve(ctx, s.registry, tenant, b)
	if err != nil {
		return nil, "", err
	}

	f, err := excelize.OpenFile(loc.DocumentID)
	if err != nil {
		return nil, "", failure.Transport(failure.StoreQueue, op, tenant, b, err)
	}

	sheet := f.GetSheetName(loc.SheetIndex - 1)
	if sheet == "" {
		_ = f.Close()
		return nil, "", fmt.Errorf("%w: %s has no worksheet %d", failure.ErrMalformedRecord, loc.DocumentID, loc.SheetIndex)
	}
	return f, sheet, nil
}

// ListPendingRows implements queue.Store
func (s *Store) ListPendingRows(ctx context.Context, tenant string, b bank.Bank) ([]matcher.QueueRow, error) {
	const op = "list_rows"

	s.mu.Lock()
	defer s.mu.Unlock()

	f, sheet, err := s.open(ctx, op, tenant, b)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	values, err := f.GetRows(sheet)
	if err != nil {
		return nil, failure.Transport(failure.StoreQueue, op, tenant, b, err)
	}

	rows, stats, err := s.layout.ParseRows(values, b)
	if err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", sheet, err)
	}

	s.logger.Debug("Read queue workbook",
		"tenant", tenant,
		"bank", b,
		"sheet", sheet,
		"rows", stats.Total,
		"pending", len(rows),
		"claimed", stats.Claimed,
		"malformed", stats.Malformed,
	)
	return rows, nil
}

// WriteIdentifiers implements queue.Store
func (s *Store) WriteIdentifiers(ctx context.Context, tenant string, b bank.Bank, writes []queue.Write) ([]queue.Write, error) {
	const op = "write_identifiers"

	sorted, err := queue.PrepareWrites(writes)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, sheet, err := s.open(ctx, op, tenant, b)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	values, err := f.GetRows(sheet)
	if err != nil {
		return nil, failure.Transport(failure.StoreQueue, op, tenant, b, err)
	}
	cols, err := s.layout.ResolveColumns(values)
	if err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", sheet, err)
	}

	var applied []queue.Write
	for _, w := range sorted {
		ref, err := cols.IDCell(w.Row)
		if err != nil {
			return nil, err
		}
		current, err := f.GetCellValue(sheet, ref)
		if err != nil {
			return nil, failure.Transport(failure.StoreQueue, op, tenant, b, err)
		}
		if strings.TrimSpace(current) != "" {
			continue
		}
		if err := f.SetCellValue(sheet, ref, w.Identifier); err != nil {
			return nil, failure.Transport(failure.StoreQueue, op, tenant, b, err)
		}
		applied = append(applied, w)
	}

	if len(applied) == 0 {
		return nil, nil
	}
	if err := f.Save(); err != nil {
		return nil, failure.Transport(failure.StoreQueue, op, tenant, b, err)
	}
	return applied, nil
}
