package gsheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/credentials"
	"github.com/eshaffer321/deposit-autoapprove/internal/adapters/queue"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/matcher"
)

// Store reads and writes approval worksheets in Google Sheets
type Store struct {
	registry queue.Registry
	creds    credentials.Resolver
	layout   queue.Layout
	services *serviceCache
	titles   *titleCache
	logger   *slog.Logger
}

// Compile-time check that Store implements queue.Store
var _ queue.Store = (*Store)(nil)

// NewStore creates a Sheets-backed queue store. A nil factory uses
// JWTServiceFactory.
func NewStore(registry queue.Registry, creds credentials.Resolver, layout queue.Layout, factory ServiceFactory, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		registry: registry,
		creds:    creds,
		layout:   layout,
		services: newServiceCache(factory),
		titles:   newTitleCache(),
		logger:   logger,
	}
}

// target is one bank's worksheet, ready to be read or written
type target struct {
	srv        *sheets.Service
	documentID string
	index      int // 0-based
	title      string
}

func (s *Store) open(ctx context.Context, op, tenant string, b bank.Bank) (*target, error) {
	loc, err := queue.Resolve(ctx, s.registry, tenant, b)
	if err != nil {
		return nil, classify(op, tenant, b, err)
	}

	cred, err := s.creds.Resolve(tenant, b)
	if err != nil {
		return nil, classify(op, tenant, b, err)
	}

	srv, err := s.services.get(ctx, cred)
	if err != nil {
		return nil, classify(op, tenant, b, err)
	}

	index := loc.SheetIndex - 1
	title, err := s.titles.get(ctx, srv, loc.DocumentID, index)
	if err != nil {
		return nil, classify(op, tenant, b, err)
	}

	return &target{srv: srv, documentID: loc.DocumentID, index: index, title: title}, nil
}

// fail classifies an error from a call against t and drops its cached title
func (s *Store) fail(t *target, op, tenant string, b bank.Bank, err error) error {
	s.titles.forget(t.documentID, t.index)
	return classify(op, tenant, b, err)
}

// ListPendingRows implements queue.Store
func (s *Store) ListPendingRows(ctx context.Context, tenant string, b bank.Bank) ([]matcher.QueueRow, error) {
	const op = "list_rows"

	t, err := s.open(ctx, op, tenant, b)
	if err != nil {
		return nil, err
	}

	values, err := readValues(ctx, t.srv, t.documentID, quoteSheet(t.title))
	if err != nil {
		return nil, s.fail(t, op, tenant, b, err)
	}

	rows, stats, err := s.layout.ParseRows(values, b)
	if err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", t.title, err)
	}

	s.logger.Debug("Read queue worksheet",
		"tenant", tenant,
		"bank", b,
		"sheet", t.title,
		"rows", stats.Total,
		"pending", len(rows),
		"claimed", stats.Claimed,
		"malformed", stats.Malformed,
	)

	return rows, nil
}

// WriteIdentifiers implements queue.Store. The identifier column is read
// over the full row span first; only empty cells are written, in one batch.
func (s *Store) WriteIdentifiers(ctx context.Context, tenant string, b bank.Bank, writes []queue.Write) ([]queue.Write, error) {
	const op = "write_identifiers"

	sorted, err := queue.PrepareWrites(writes)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return nil, nil
	}

	t, err := s.open(ctx, op, tenant, b)
	if err != nil {
		return nil, err
	}

	sheet := quoteSheet(t.title)
	header, err := readValues(ctx, t.srv, t.documentID, fmt.Sprintf("%s!%d:%d", sheet, s.layout.HeaderRow, s.layout.HeaderRow))
	if err != nil {
		return nil, s.fail(t, op, tenant, b, err)
	}
	headerLayout := s.layout
	headerLayout.HeaderRow = 1
	cols, err := headerLayout.ResolveColumns(header)
	if err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", t.title, err)
	}
	col, err := cols.IDColumnName()
	if err != nil {
		return nil, err
	}

	first, last := queue.RowSpan(sorted)
	current, err := readValues(ctx, t.srv, t.documentID, fmt.Sprintf("%s!%s%d:%s%d", sheet, col, first, col, last))
	if err != nil {
		return nil, s.fail(t, op, tenant, b, err)
	}

	var applied []queue.Write
	var data []*sheets.ValueRange
	for _, w := range sorted {
		if strings.TrimSpace(cellAt(current, w.Row-first)) != "" {
			continue
		}
		applied = append(applied, w)
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", sheet, col, w.Row),
			Values: [][]interface{}{{w.Identifier}},
		})
	}

	if len(data) == 0 {
		return nil, nil
	}

	_, err = t.srv.Spreadsheets.Values.BatchUpdate(t.documentID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return nil, s.fail(t, op, tenant, b, err)
	}

	return applied, nil
}

// cellAt returns the first cell of the i-th row of a single-column range
func cellAt(values [][]string, i int) string {
	if i < 0 || i >= len(values) || len(values[i]) == 0 {
		return ""
	}
	return values[i][0]
}
