package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// depositsEnvelope is the body of the init endpoint; deposits sit two
// "data" levels down.
type depositsEnvelope struct {
	Data struct {
		Data struct {
			Deposits []depositRecord `json:"deposits"`
		} `json:"data"`
	} `json:"data"`
}

type depositRecord struct {
	ID     depositID `json:"id"`
	Player struct {
		Username string `json:"username"`
	} `json:"player"`
	PlayerAccountName string `json:"player_account_name"`
	CompanyBank       struct {
		Name string `json:"name"`
	} `json:"company_bank"`
	Amount decimal.NullDecimal `json:"amount"`
}

// depositID accepts numeric and string ids and keeps them as strings
type depositID string

func (d *depositID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = depositID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("deposit id: %w", err)
	}
	*d = depositID(n.String())
	return nil
}

// statusUpdate is one entry of the auto-approval request body
type statusUpdate struct {
	ID        json.RawMessage `json:"id"`
	AgentNote *string         `json:"agent_note"`
	Status    int             `json:"status"`
}

// encodeID sends all-digit ids as JSON numbers, the way the panel issued them
func encodeID(id string) json.RawMessage {
	if _, err := strconv.ParseUint(id, 10, 64); err == nil && (id == "0" || id[0] != '0') {
		return json.RawMessage(id)
	}
	b, _ := json.Marshal(id)
	return b
}
