package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Cycle statuses
const (
	CycleRunning   = "running"
	CycleCompleted = "completed"
	CycleEmpty     = "empty" // no pending rows in any bank
	CycleFailed    = "failed"
)

// Approval outcomes
const (
	OutcomeApproved    = "approved"     // identifier written and panel updated
	OutcomeLostRace    = "lost_race"    // row was filled by someone else first
	OutcomeQueueFailed = "queue_failed" // queue write failed, panel not called
	OutcomePanelFailed = "panel_failed" // identifier written, panel call failed
	OutcomeDryRun      = "dry_run"
)

// Cycle is one reconciliation pass over every configured bank
type Cycle struct {
	ID              string    `json:"id"`
	Tenant          string    `json:"tenant"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at,omitempty"`
	DryRun          bool      `json:"dry_run"`
	Status          string    `json:"status"`
	DepositsFetched int       `json:"deposits_fetched"`
	RowsFetched     int       `json:"rows_fetched"`
	Candidates      int       `json:"candidates"`
	Approved        int       `json:"approved"`
	LostRace        int       `json:"lost_race"`
	Failed          int       `json:"failed"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
}

// Approval is the audit entry for one candidate's write-back
type Approval struct {
	ID           int64     `json:"id"`
	CycleID      string    `json:"cycle_id"`
	Tenant       string    `json:"tenant"`
	Bank         string    `json:"bank"`
	DepositID    string    `json:"deposit_id"`
	Username     string    `json:"username"`
	Row          int       `json:"row"`
	Outcome      string    `json:"outcome"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats contains aggregate statistics over the audit trail
type Stats struct {
	TotalCycles     int                  `json:"total_cycles"`
	CompletedCycles int                  `json:"completed_cycles"`
	EmptyCycles     int                  `json:"empty_cycles"`
	FailedCycles    int                  `json:"failed_cycles"`
	TotalApprovals  int                  `json:"total_approvals"`
	Outcomes        map[string]int       `json:"outcomes"`
	BankStats       map[string]BankStats `json:"bank_stats"`
	LastCycleAt     *time.Time           `json:"last_cycle_at,omitempty"`
}

// BankStats contains per-bank outcome counts
type BankStats struct {
	Approved int `json:"approved"`
	LostRace int `json:"lost_race"`
	Failed   int `json:"failed"`
}
