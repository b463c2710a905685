package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite access to the reconciliation audit trail.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (or creates) the SQLite database and migrates it
func NewStorage(dbPath string) (*Storage, error) {
	// Foreign keys and busy timeout are set per connection through the DSN
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartCycle inserts a running cycle
func (s *Storage) StartCycle(c *Cycle) error {
	if c.ID == "" {
		return errors.New("cycle id is required")
	}
	if c.Status == "" {
		c.Status = CycleRunning
	}

	_, err := s.db.Exec(`
		INSERT INTO cycles (id, tenant, started_at, dry_run, status)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.Tenant, c.StartedAt.UTC(), c.DryRun, c.Status)
	if err != nil {
		return fmt.Errorf("failed to start cycle: %w", err)
	}
	return nil
}

// CompleteCycle updates a cycle's counters and status
func (s *Storage) CompleteCycle(c *Cycle) error {
	res, err := s.db.Exec(`
		UPDATE cycles SET
			completed_at = ?, status = ?,
			deposits_fetched = ?, rows_fetched = ?, candidates = ?,
			approved = ?, lost_race = ?, failed = ?,
			error_message = ?, duration_ms = ?
		WHERE id = ?
	`,
		c.CompletedAt.UTC(), c.Status,
		c.DepositsFetched, c.RowsFetched, c.Candidates,
		c.Approved, c.LostRace, c.Failed,
		c.ErrorMessage, c.DurationMs,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete cycle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete cycle %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

const cycleColumns = `id, tenant, started_at, completed_at, dry_run, status,
	deposits_fetched, rows_fetched, candidates, approved, lost_race, failed,
	error_message, duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(row scanner) (*Cycle, error) {
	var c Cycle
	var completed sql.NullTime
	err := row.Scan(
		&c.ID, &c.Tenant, &c.StartedAt, &completed, &c.DryRun, &c.Status,
		&c.DepositsFetched, &c.RowsFetched, &c.Candidates, &c.Approved, &c.LostRace, &c.Failed,
		&c.ErrorMessage, &c.DurationMs,
	)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		c.CompletedAt = completed.Time
	}
	return &c, nil
}

// GetCycle retrieves a cycle by ID
func (s *Storage) GetCycle(id string) (*Cycle, error) {
	row := s.db.QueryRow(`SELECT `+cycleColumns+` FROM cycles WHERE id = ?`, id)
	c, err := scanCycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	return c, nil
}

// ListCycles returns recent cycles, newest first
func (s *Storage) ListCycles(filters CycleFilters) ([]*Cycle, error) {
	var where []string
	var args []any
	if filters.Tenant != "" {
		where = append(where, "tenant = ?")
		args = append(args, filters.Tenant)
	}
	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}

	query := `SELECT ` + cycleColumns + ` FROM cycles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC LIMIT ? OFFSET ?"
	args = append(args, normalizeLimit(filters.Limit), filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cycles := make([]*Cycle, 0)
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// SaveApprovals appends audit entries in a single transaction
func (s *Storage) SaveApprovals(approvals []Approval) error {
	if len(approvals) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO approvals
		(cycle_id, tenant, bank, deposit_id, username, sheet_row, outcome, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare approval insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, a := range approvals {
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.Exec(
			a.CycleID, a.Tenant, a.Bank, a.DepositID, a.Username,
			a.Row, a.Outcome, a.ErrorMessage, createdAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to save approval for deposit %s: %w", a.DepositID, err)
		}
	}

	return tx.Commit()
}

// ListApprovals returns audit entries matching the filters
func (s *Storage) ListApprovals(filters ApprovalFilters) (*ApprovalListResult, error) {
	var where []string
	var args []any
	for _, f := range []struct{ column, value string }{
		{"cycle_id", filters.CycleID},
		{"tenant", filters.Tenant},
		{"bank", filters.Bank},
		{"outcome", filters.Outcome},
	} {
		if f.value != "" {
			where = append(where, f.column+" = ?")
			args = append(args, f.value)
		}
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	limit := normalizeLimit(filters.Limit)
	result := &ApprovalListResult{
		Approvals: make([]*Approval, 0),
		Limit:     limit,
		Offset:    filters.Offset,
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM approvals`+whereClause, args...).Scan(&result.TotalCount); err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, cycle_id, tenant, bank, deposit_id, username, sheet_row, outcome, error_message, created_at
		FROM approvals`+whereClause+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, filters.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var a Approval
		if err := rows.Scan(
			&a.ID, &a.CycleID, &a.Tenant, &a.Bank, &a.DepositID, &a.Username,
			&a.Row, &a.Outcome, &a.ErrorMessage, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		result.Approvals = append(result.Approvals, &a)
	}
	return result, rows.Err()
}

// GetStats aggregates cycles and approvals
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{
		Outcomes:  make(map[string]int),
		BankStats: make(map[string]BankStats),
	}

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM cycles GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count cycles: %w", err)
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.TotalCycles += n
		switch status {
		case CycleCompleted:
			stats.CompletedCycles = n
		case CycleEmpty:
			stats.EmptyCycles = n
		case CycleFailed:
			stats.FailedCycles = n
		}
	}
	_ = rows.Close()

	var last sql.NullString
	if err := s.db.QueryRow(`SELECT MAX(started_at) FROM cycles`).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to read last cycle: %w", err)
	}
	if last.Valid {
		if t, err := parseTimestamp(last.String); err == nil {
			stats.LastCycleAt = &t
		}
	}

	rows, err = s.db.Query(`SELECT bank, outcome, COUNT(*) FROM approvals GROUP BY bank, outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var bank, outcome string
		var n int
		if err := rows.Scan(&bank, &outcome, &n); err != nil {
			return nil, err
		}
		stats.TotalApprovals += n
		stats.Outcomes[outcome] += n

		bs := stats.BankStats[bank]
		switch outcome {
		case OutcomeApproved:
			bs.Approved += n
		case OutcomeLostRace:
			bs.LostRace += n
		case OutcomeQueueFailed, OutcomePanelFailed:
			bs.Failed += n
		}
		stats.BankStats[bank] = bs
	}
	return stats, rows.Err()
}

// parseTimestamp reads the formats go-sqlite3 writes for time.Time values
func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}
