package dto

// CycleListParams represents query parameters for listing cycles.
type CycleListParams struct {
	Tenant string `json:"tenant"`
	Status string `json:"status"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ApprovalListParams represents query parameters for listing approvals.
type ApprovalListParams struct {
	CycleID string `json:"cycle_id"`
	Tenant  string `json:"tenant"`
	Bank    string `json:"bank"`
	Outcome string `json:"outcome"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

// DefaultCycleListParams returns default values for cycle list params.
func DefaultCycleListParams() CycleListParams {
	return CycleListParams{
		Limit: 20,
	}
}

// DefaultApprovalListParams returns default values for approval list params.
func DefaultApprovalListParams() ApprovalListParams {
	return ApprovalListParams{
		Limit: 50,
	}
}
