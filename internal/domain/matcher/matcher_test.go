package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
)

// Helper to create test deposit
func makeDeposit(id, name string, coin int64, b bank.Bank) Deposit {
	return Deposit{
		ID:       id,
		Username: "user-" + id,
		Name:     name,
		Bank:     b,
		Coin:     coin,
	}
}

// Helper to create test row
func makeRow(row int, name string, coin int64, b bank.Bank) QueueRow {
	return QueueRow{
		Name: name,
		Coin: coin,
		Row:  row,
		Bank: b,
	}
}

func TestMatcher_SubstringAndExactAmount(t *testing.T) {
	// Arrange
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{makeRow(12, "JOHNDOE", 50, bank.BCA)}
	deposits := []Deposit{
		makeDeposit("A", "JOHNDOETRANSFER", 50, bank.BCA),
		makeDeposit("B", "JOHNDOETRANSFER", 75, bank.BCA),
	}

	// Act
	candidates := m.Match(deposits, rows)

	// Assert
	require.Len(t, candidates, 1)
	assert.Equal(t, Candidate{
		DepositID: "A",
		Username:  "user-A",
		Bank:      bank.BCA,
		Row:       12,
	}, candidates[0])
}

func TestMatcher_DepositConsumedAtMostOnce(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{
		makeRow(12, "JOHNDOE", 50, bank.BCA),
		makeRow(13, "JOHN", 50, bank.BCA),
		makeRow(14, "DOE", 50, bank.BCA),
	}
	deposits := []Deposit{makeDeposit("A", "JOHNDOESMITH", 50, bank.BCA)}

	candidates := m.Match(deposits, rows)

	require.Len(t, candidates, 1)
	assert.Equal(t, "A", candidates[0].DepositID)
	assert.Equal(t, 12, candidates[0].Row)
}

func TestMatcher_LongerNameWins(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	t.Run("single deposit goes to the longer name", func(t *testing.T) {
		// Short row listed first on purpose
		rows := []QueueRow{
			makeRow(20, "JO", 50, bank.DANA),
			makeRow(21, "JOHNDOE", 50, bank.DANA),
		}
		deposits := []Deposit{makeDeposit("A", "JOHNDOESMITH", 50, bank.DANA)}

		candidates := m.Match(deposits, rows)

		require.Len(t, candidates, 1)
		assert.Equal(t, 21, candidates[0].Row)
		assert.Equal(t, "A", candidates[0].DepositID)
	})

	t.Run("shorter name falls back to another deposit", func(t *testing.T) {
		rows := []QueueRow{
			makeRow(20, "JO", 50, bank.DANA),
			makeRow(21, "JOHNDOE", 50, bank.DANA),
		}
		deposits := []Deposit{
			makeDeposit("A", "JOHNDOESMITH", 50, bank.DANA),
			makeDeposit("B", "JOKOWIDODO", 50, bank.DANA),
		}

		candidates := m.Match(deposits, rows)

		require.Len(t, candidates, 2)
		assert.Equal(t, Candidate{DepositID: "A", Username: "user-A", Bank: bank.DANA, Row: 21}, candidates[0])
		assert.Equal(t, Candidate{DepositID: "B", Username: "user-B", Bank: bank.DANA, Row: 20}, candidates[1])
	})
}

func TestMatcher_FirstFitInDepositOrder(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{makeRow(12, "ANI", 100, bank.BRI)}
	deposits := []Deposit{
		makeDeposit("first", "ANISA", 100, bank.BRI),
		makeDeposit("second", "ANI", 100, bank.BRI),
	}

	candidates := m.Match(deposits, rows)

	require.Len(t, candidates, 1)
	assert.Equal(t, "first", candidates[0].DepositID)
}

func TestMatcher_ThresholdExclusion(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{
		makeRow(12, "JOHNDOE", 15, bank.BCA),
		makeRow(13, "JANEDOE", 19, bank.BCA),
	}
	deposits := []Deposit{
		makeDeposit("A", "JOHNDOE", 15, bank.BCA),
		makeDeposit("B", "JANEDOE", 19, bank.BCA),
	}

	assert.Empty(t, m.Match(deposits, rows))
}

func TestMatcher_ThresholdBoundary(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{makeRow(12, "JOHNDOE", 20, bank.BCA)}
	deposits := []Deposit{makeDeposit("A", "JOHNDOE", 20, bank.BCA)}

	assert.Len(t, m.Match(deposits, rows), 1)
}

func TestMatcher_BankIsolation(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{makeRow(12, "JOHNDOE", 50, bank.BCA)}
	deposits := []Deposit{makeDeposit("A", "JOHNDOE", 50, bank.BNI)}

	assert.Empty(t, m.Match(deposits, rows))
}

func TestMatcher_SkipsIncompleteRows(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{
		makeRow(12, "", 50, bank.BCA),
		makeRow(13, "JOHNDOE", 50, ""),
	}
	deposits := []Deposit{
		makeDeposit("A", "JOHNDOE", 50, bank.BCA),
		makeDeposit("", "JOHNDOE", 50, ""),
	}

	assert.Empty(t, m.Match(deposits, rows))
}

func TestMatcher_NoMatchReturnsEmpty(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	assert.Empty(t, m.Match(nil, nil))
	assert.Empty(t, m.Match([]Deposit{makeDeposit("A", "X", 50, bank.BCA)}, nil))
	assert.Empty(t, m.Match(nil, []QueueRow{makeRow(12, "X", 50, bank.BCA)}))
	assert.Empty(t, m.Match(
		[]Deposit{makeDeposit("A", "BUDI", 50, bank.BCA)},
		[]QueueRow{makeRow(12, "SANTOSO", 50, bank.BCA)},
	))
}

func TestMatcher_Idempotent(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{
		makeRow(12, "JO", 50, bank.MANDIRI),
		makeRow(13, "JOHNDOE", 50, bank.MANDIRI),
		makeRow(14, "SITI", 75, bank.MANDIRI),
		makeRow(15, "AGUS", 75, bank.MANDIRI),
	}
	deposits := []Deposit{
		makeDeposit("A", "JOHNDOESMITH", 50, bank.MANDIRI),
		makeDeposit("B", "SITIAMINAH", 75, bank.MANDIRI),
		makeDeposit("C", "JOKO", 50, bank.MANDIRI),
	}

	first := m.Match(deposits, rows)
	second := m.Match(deposits, rows)

	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestMatcher_ActionableRowsOrdering(t *testing.T) {
	m := NewMatcher(DefaultConfig())
	rows := []QueueRow{
		makeRow(1, "AB", 50, bank.BCA),
		makeRow(2, "ABCD", 50, bank.BCA),
		makeRow(3, "CD", 50, bank.BCA),
		makeRow(4, "ABC", 10, bank.BCA),
	}

	got := m.ActionableRows(rows)

	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{got[0].Row, got[1].Row, got[2].Row})
	// input untouched
	assert.Equal(t, 1, rows[0].Row)
}

func TestMatcher_CustomMinCoin(t *testing.T) {
	m := NewMatcher(Config{MinCoin: 100})
	rows := []QueueRow{makeRow(12, "JOHNDOE", 50, bank.BCA)}
	deposits := []Deposit{makeDeposit("A", "JOHNDOE", 50, bank.BCA)}

	assert.Empty(t, m.Match(deposits, rows))
}
