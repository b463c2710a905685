package matcher

import (
	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
)

// DefaultMinCoin is the smallest actionable amount
const DefaultMinCoin int64 = 20

// Config holds matcher configuration
type Config struct {
	MinCoin int64 // Rows and deposits below this amount are ignored (default: 20)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MinCoin: DefaultMinCoin,
	}
}

// Deposit is a pending deposit request reported by the panel
type Deposit struct {
	ID       string    // Opaque, unique within one snapshot
	Username string    // Player username written back into the queue
	Name     string    // Canonical payer account name
	Bank     bank.Bank
	Coin     int64
}

// QueueRow is a worksheet row whose identifier cell is still empty
type QueueRow struct {
	Name string    `json:"name"` // Canonical holder name
	Coin int64     `json:"coin"`
	Row  int       `json:"row"` // 1-based worksheet row number
	Bank bank.Bank `json:"bank"`
}

// Candidate pairs one deposit with one queue row, ready for write-back
type Candidate struct {
	DepositID string
	Username  string
	Bank      bank.Bank
	Row       int
}
