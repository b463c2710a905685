package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	LastCycleAt string `json:"last_cycle_at,omitempty"`
}

// CycleResponse represents a reconciliation cycle in API responses.
type CycleResponse struct {
	ID              string `json:"id"`
	Tenant          string `json:"tenant"`
	StartedAt       string `json:"started_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
	DryRun          bool   `json:"dry_run"`
	Status          string `json:"status"`
	DepositsFetched int    `json:"deposits_fetched"`
	RowsFetched     int    `json:"rows_fetched"`
	Candidates      int    `json:"candidates"`
	Approved        int    `json:"approved"`
	LostRace        int    `json:"lost_race"`
	FailedBanks     int    `json:"failed_banks"`
	ErrorMessage    string `json:"error_message,omitempty"`
	DurationMs      int64  `json:"duration_ms"`
}

// CycleListResponse is returned when listing cycles.
type CycleListResponse struct {
	Cycles []CycleResponse `json:"cycles"`
	Count  int             `json:"count"`
}

// CycleDetailResponse is a cycle with its write-back outcomes.
type CycleDetailResponse struct {
	CycleResponse
	Approvals []ApprovalResponse `json:"approvals"`
}

// ApprovalResponse represents one candidate's write-back outcome.
type ApprovalResponse struct {
	ID           int64  `json:"id"`
	CycleID      string `json:"cycle_id"`
	Tenant       string `json:"tenant"`
	Bank         string `json:"bank"`
	DepositID    string `json:"deposit_id"`
	Username     string `json:"username"`
	Row          int    `json:"row"`
	Outcome      string `json:"outcome"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ApprovalListResponse is returned when listing approvals.
type ApprovalListResponse struct {
	Approvals  []ApprovalResponse `json:"approvals"`
	TotalCount int                `json:"total_count"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

// BankStatsResponse contains outcome counts for one bank.
type BankStatsResponse struct {
	Bank     string `json:"bank"`
	Approved int    `json:"approved"`
	LostRace int    `json:"lost_race"`
	Failed   int    `json:"failed"`
}

// StatsResponse contains aggregate statistics over the audit trail.
type StatsResponse struct {
	TotalCycles     int                 `json:"total_cycles"`
	CompletedCycles int                 `json:"completed_cycles"`
	EmptyCycles     int                 `json:"empty_cycles"`
	FailedCycles    int                 `json:"failed_cycles"`
	TotalApprovals  int                 `json:"total_approvals"`
	Outcomes        map[string]int      `json:"outcomes"`
	BankStats       []BankStatsResponse `json:"bank_stats"`
	LastCycleAt     string              `json:"last_cycle_at,omitempty"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// FormatTime formats t as RFC 3339 in UTC, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
