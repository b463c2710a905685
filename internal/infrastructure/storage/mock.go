package storage

import (
	"sort"
	"sync"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu        sync.Mutex
	cycles    map[string]*Cycle
	approvals []Approval
	nextID    int64

	// Hooks for test assertions
	StartCycleCalled    bool
	CompleteCycleCalled bool
	LastCompletedCycle  *Cycle

	// Error injection for testing error paths
	StartCycleErr    error
	CompleteCycleErr error
	SaveApprovalsErr error
	GetStatsErr      error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		cycles: make(map[string]*Cycle),
		nextID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// StartCycle stores a copy of the cycle
func (m *MockRepository) StartCycle(c *Cycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartCycleCalled = true
	if m.StartCycleErr != nil {
		return m.StartCycleErr
	}
	copied := *c
	if copied.Status == "" {
		copied.Status = CycleRunning
	}
	m.cycles[c.ID] = &copied
	return nil
}

// CompleteCycle replaces the stored cycle
func (m *MockRepository) CompleteCycle(c *Cycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteCycleCalled = true
	if m.CompleteCycleErr != nil {
		return m.CompleteCycleErr
	}
	if _, ok := m.cycles[c.ID]; !ok {
		return ErrNotFound
	}
	copied := *c
	m.cycles[c.ID] = &copied
	m.LastCompletedCycle = &copied
	return nil
}

// GetCycle retrieves a cycle by ID
func (m *MockRepository) GetCycle(id string) (*Cycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cycles[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// ListCycles returns cycles newest first
func (m *MockRepository) ListCycles(filters CycleFilters) ([]*Cycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Cycle, 0, len(m.cycles))
	for _, c := range m.cycles {
		if filters.Tenant != "" && c.Tenant != filters.Tenant {
			continue
		}
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return page(out, filters.Limit, filters.Offset), nil
}

// SaveApprovals appends approvals
func (m *MockRepository) SaveApprovals(approvals []Approval) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveApprovalsErr != nil {
		return m.SaveApprovalsErr
	}
	for _, a := range approvals {
		a.ID = m.nextID
		m.nextID++
		m.approvals = append(m.approvals, a)
	}
	return nil
}

// Approvals returns every saved approval in insertion order
func (m *MockRepository) Approvals() []Approval {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Approval, len(m.approvals))
	copy(out, m.approvals)
	return out
}

// ListApprovals filters saved approvals, newest first
func (m *MockRepository) ListApprovals(filters ApprovalFilters) (*ApprovalListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]*Approval, 0)
	for i := len(m.approvals) - 1; i >= 0; i-- {
		a := m.approvals[i]
		if filters.CycleID != "" && a.CycleID != filters.CycleID {
			continue
		}
		if filters.Tenant != "" && a.Tenant != filters.Tenant {
			continue
		}
		if filters.Bank != "" && a.Bank != filters.Bank {
			continue
		}
		if filters.Outcome != "" && a.Outcome != filters.Outcome {
			continue
		}
		matched = append(matched, &a)
	}

	return &ApprovalListResult{
		Approvals:  page(matched, filters.Limit, filters.Offset),
		TotalCount: len(matched),
		Limit:      normalizeLimit(filters.Limit),
		Offset:     filters.Offset,
	}, nil
}

// GetStats computes statistics over the stored data
func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetStatsErr != nil {
		return nil, m.GetStatsErr
	}

	stats := &Stats{
		Outcomes:  make(map[string]int),
		BankStats: make(map[string]BankStats),
	}
	for _, c := range m.cycles {
		stats.TotalCycles++
		switch c.Status {
		case CycleCompleted:
			stats.CompletedCycles++
		case CycleEmpty:
			stats.EmptyCycles++
		case CycleFailed:
			stats.FailedCycles++
		}
		if stats.LastCycleAt == nil || c.StartedAt.After(*stats.LastCycleAt) {
			started := c.StartedAt
			stats.LastCycleAt = &started
		}
	}
	for _, a := range m.approvals {
		stats.TotalApprovals++
		stats.Outcomes[a.Outcome]++
		bs := stats.BankStats[a.Bank]
		switch a.Outcome {
		case OutcomeApproved:
			bs.Approved++
		case OutcomeLostRace:
			bs.LostRace++
		case OutcomeQueueFailed, OutcomePanelFailed:
			bs.Failed++
		}
		stats.BankStats[a.Bank] = bs
	}
	return stats, nil
}

func page[T any](items []T, limit, offset int) []T {
	limit = normalizeLimit(limit)
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
