package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is one categorized posting as delivered by the upstream source.
// Records are immutable once ingested; a new ingestion replaces the whole set.
type Transaction struct {
	BookingDate civil.Date      `json:"bookingDate"`
	Payee       string          `json:"payee"`
	Memo        string          `json:"memo"`
	Amount      decimal.Decimal `json:"amount"` // positive = inflow, negative = outflow
	Category    string          `json:"category"`
	Recurring   bool            `json:"recurring"`
	FixedCost   bool            `json:"fixedCost"`
}

// IsIncome reports whether the transaction is an inflow.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// Outflow returns the absolute amount of an outflow, zero for inflows.
func (t Transaction) Outflow() decimal.Decimal {
	if !t.IsExpense() {
		return decimal.Zero
	}
	return t.Amount.Neg()
}

// IsFixedCostOutflow reports whether the transaction counts towards fixed costs.
func (t Transaction) IsFixedCostOutflow() bool {
	return t.FixedCost && t.IsExpense()
}
