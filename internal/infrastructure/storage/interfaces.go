package storage

// Repository defines the complete storage interface.
// The audit trail is write-only from the reconciler's point of view;
// reads serve the ops API.
type Repository interface {
	CycleRepository
	ApprovalRepository

	// GetStats returns aggregate statistics
	GetStats() (*Stats, error)

	Close() error
}

// CycleRepository handles reconciliation cycle tracking
type CycleRepository interface {
	// StartCycle records the start of a cycle. c.ID must be set.
	StartCycle(c *Cycle) error

	// CompleteCycle stores the final counters and status of a cycle
	CompleteCycle(c *Cycle) error

	// GetCycle retrieves a cycle by ID, or ErrNotFound
	GetCycle(id string) (*Cycle, error)

	// ListCycles returns recent cycles, newest first
	ListCycles(filters CycleFilters) ([]*Cycle, error)
}

// ApprovalRepository handles write-back audit entries
type ApprovalRepository interface {
	// SaveApprovals appends entries in one transaction
	SaveApprovals(approvals []Approval) error

	// ListApprovals returns entries matching the filters, newest first
	ListApprovals(filters ApprovalFilters) (*ApprovalListResult, error)
}

// CycleFilters defines filters for listing cycles
type CycleFilters struct {
	Tenant string // empty = all
	Status string // empty = all
	Limit  int    // 0 = default 50
	Offset int
}

// ApprovalFilters defines filters for listing approvals
type ApprovalFilters struct {
	CycleID string
	Tenant  string
	Bank    string
	Outcome string
	Limit   int // 0 = default 50
	Offset  int
}

// ApprovalListResult contains paginated approval results
type ApprovalListResult struct {
	Approvals  []*Approval `json:"approvals"`
	TotalCount int         `json:"total_count"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}

const defaultLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}
