package domain

// Batch is one complete delivery from the upstream source. It replaces
// whatever was ingested before.
type Batch struct {
	Transactions   []Transaction   `json:"transactions"`
	Balance        *CurrentBalance `json:"balance,omitempty"`
	BalanceHistory []BalancePoint  `json:"balanceHistory,omitempty"`
}
