// Package aggregate computes totals, category breakdowns, time series and
// budget metrics over a filtered transaction set. Every function is a pure
// function of its input.
package aggregate

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals are the scalar aggregates of a transaction set.
type Totals struct {
	Income     decimal.Decimal `json:"income"`
	Expenses   decimal.Decimal `json:"expenses"`
	FixedCosts decimal.Decimal `json:"fixedCosts"`
	NetFlow    decimal.Decimal `json:"netFlow"`
}

// ComputeTotals sums inflows, outflows and fixed-cost outflows.
// NetFlow is always exactly Income minus Expenses.
func ComputeTotals(txs []domain.Transaction) Totals {
	t := Totals{Income: decimal.Zero, Expenses: decimal.Zero, FixedCosts: decimal.Zero}
	for _, tx := range txs {
		switch {
		case tx.IsIncome():
			t.Income = t.Income.Add(tx.Amount)
		case tx.IsExpense():
			t.Expenses = t.Expenses.Add(tx.Outflow())
			if tx.FixedCost {
				t.FixedCosts = t.FixedCosts.Add(tx.Outflow())
			}
		}
	}
	t.NetFlow = t.Income.Sub(t.Expenses)
	return t
}

// FixedCostRatio returns fixed costs as a fraction of income, 0 without income.
func (t Totals) FixedCostRatio() float64 {
	if !t.Income.IsPositive() {
		return 0
	}
	return t.FixedCosts.Div(t.Income).InexactFloat64()
}

// percentOf returns part/whole*100 unrounded, 0 when whole is not positive.
func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).InexactFloat64()
}

// round1 rounds a percentage to one decimal place for display.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
