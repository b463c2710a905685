package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	tmpDB := createTempDB(t)
	t.Cleanup(func() { _ = os.Remove(tmpDB) })

	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorage_CycleLifecycle(t *testing.T) {
	store := newTestStorage(t)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	cycle := &Cycle{ID: "cycle-1", Tenant: "acme", StartedAt: started, DryRun: true}
	require.NoError(t, store.StartCycle(cycle))

	got, err := store.GetCycle("cycle-1")
	require.NoError(t, err)
	assert.Equal(t, CycleRunning, got.Status)
	assert.True(t, got.CompletedAt.IsZero())
	assert.True(t, got.DryRun)

	cycle.Status = CycleCompleted
	cycle.CompletedAt = started.Add(2 * time.Second)
	cycle.DepositsFetched = 4
	cycle.RowsFetched = 3
	cycle.Candidates = 2
	cycle.Approved = 1
	cycle.LostRace = 1
	cycle.DurationMs = 2000
	require.NoError(t, store.CompleteCycle(cycle))

	got, err = store.GetCycle("cycle-1")
	require.NoError(t, err)
	assert.Equal(t, CycleCompleted, got.Status)
	assert.True(t, got.StartedAt.Equal(started))
	assert.True(t, got.CompletedAt.Equal(started.Add(2*time.Second)))
	assert.Equal(t, 4, got.DepositsFetched)
	assert.Equal(t, 1, got.Approved)
	assert.Equal(t, 1, got.LostRace)
	assert.Equal(t, int64(2000), got.DurationMs)
}

func TestStorage_CycleNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetCycle("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.CompleteCycle(&Cycle{ID: "missing", Status: CycleFailed})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.StartCycle(&Cycle{Tenant: "acme"}))
}

func TestStorage_ListCycles(t *testing.T) {
	store := newTestStorage(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, status := range []string{CycleEmpty, CycleCompleted, CycleFailed} {
		c := &Cycle{ID: string(rune('a' + i)), Tenant: "acme", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.StartCycle(c))
		c.Status = status
		c.CompletedAt = c.StartedAt
		require.NoError(t, store.CompleteCycle(c))
	}

	cycles, err := store.ListCycles(CycleFilters{})
	require.NoError(t, err)
	require.Len(t, cycles, 3)
	assert.Equal(t, "c", cycles[0].ID, "newest first")

	cycles, err = store.ListCycles(CycleFilters{Status: CycleCompleted})
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, "b", cycles[0].ID)

	cycles, err = store.ListCycles(CycleFilters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, "b", cycles[0].ID)
}

func TestStorage_Approvals(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.StartCycle(&Cycle{ID: "cycle-1", Tenant: "acme", StartedAt: time.Now()}))

	err := store.SaveApprovals([]Approval{
		{CycleID: "cycle-1", Tenant: "acme", Bank: "BCA", DepositID: "1", Username: "player1", Row: 12, Outcome: OutcomeApproved},
		{CycleID: "cycle-1", Tenant: "acme", Bank: "BCA", DepositID: "2", Username: "player2", Row: 13, Outcome: OutcomeLostRace},
		{CycleID: "cycle-1", Tenant: "acme", Bank: "DANA", DepositID: "3", Username: "player3", Row: 20, Outcome: OutcomePanelFailed, ErrorMessage: "panel 500"},
	})
	require.NoError(t, err)

	result, err := store.ListApprovals(ApprovalFilters{CycleID: "cycle-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCount)
	assert.Len(t, result.Approvals, 3)

	result, err = store.ListApprovals(ApprovalFilters{Bank: "BCA", Outcome: OutcomeApproved})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalCount)
	assert.Equal(t, "player1", result.Approvals[0].Username)
	assert.Equal(t, 12, result.Approvals[0].Row)
	assert.False(t, result.Approvals[0].CreatedAt.IsZero())

	require.NoError(t, store.SaveApprovals(nil))
}

func TestStorage_GetStats(t *testing.T) {
	store := newTestStorage(t)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	c := &Cycle{ID: "cycle-1", Tenant: "acme", StartedAt: started}
	require.NoError(t, store.StartCycle(c))
	c.Status = CycleCompleted
	c.CompletedAt = started
	require.NoError(t, store.CompleteCycle(c))
	require.NoError(t, store.StartCycle(&Cycle{ID: "cycle-2", Tenant: "acme", StartedAt: started.Add(time.Minute), Status: CycleEmpty}))

	require.NoError(t, store.SaveApprovals([]Approval{
		{CycleID: "cycle-1", Tenant: "acme", Bank: "BCA", DepositID: "1", Username: "a", Row: 12, Outcome: OutcomeApproved},
		{CycleID: "cycle-1", Tenant: "acme", Bank: "BCA", DepositID: "2", Username: "b", Row: 13, Outcome: OutcomeQueueFailed},
		{CycleID: "cycle-1", Tenant: "acme", Bank: "BRI", DepositID: "3", Username: "c", Row: 14, Outcome: OutcomeLostRace},
	}))

	stats, err := store.GetStats()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalCycles)
	assert.Equal(t, 1, stats.CompletedCycles)
	assert.Equal(t, 1, stats.EmptyCycles)
	assert.Equal(t, 3, stats.TotalApprovals)
	assert.Equal(t, 1, stats.Outcomes[OutcomeApproved])
	assert.Equal(t, BankStats{Approved: 1, Failed: 1}, stats.BankStats["BCA"])
	assert.Equal(t, BankStats{LostRace: 1}, stats.BankStats["BRI"])
	require.NotNil(t, stats.LastCycleAt)
	assert.True(t, stats.LastCycleAt.Equal(started.Add(time.Minute)))
}

func TestMockRepository(t *testing.T) {
	repo := NewMockRepository()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.StartCycle(&Cycle{ID: "a", Tenant: "acme", StartedAt: base}))
	require.NoError(t, repo.StartCycle(&Cycle{ID: "b", Tenant: "acme", StartedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.CompleteCycle(&Cycle{ID: "a", Tenant: "acme", StartedAt: base, Status: CycleCompleted}))
	assert.ErrorIs(t, repo.CompleteCycle(&Cycle{ID: "zzz"}), ErrNotFound)

	cycles, err := repo.ListCycles(CycleFilters{})
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	assert.Equal(t, "b", cycles[0].ID)

	require.NoError(t, repo.SaveApprovals([]Approval{
		{CycleID: "a", Bank: "BCA", Outcome: OutcomeApproved},
		{CycleID: "a", Bank: "BCA", Outcome: OutcomeLostRace},
	}))
	result, err := repo.ListApprovals(ApprovalFilters{Outcome: OutcomeLostRace})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCycles)
	assert.Equal(t, BankStats{Approved: 1, LostRace: 1}, stats.BankStats["BCA"])
}
