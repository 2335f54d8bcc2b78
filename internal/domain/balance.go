package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// BalancePoint is the account balance at the end of a calendar day.
type BalancePoint struct {
	Date    civil.Date      `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// CurrentBalance is an explicitly reported balance figure, e.g. the closing
// balance printed on a statement.
type CurrentBalance struct {
	Value decimal.Decimal `json:"value"`
	Label string          `json:"label,omitempty"`
}
