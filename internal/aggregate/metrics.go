package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// Budget rule targets, in percent of income.
const (
	NeedsTarget   = 50.0
	WantsTarget   = 30.0
	SavingsTarget = 20.0
)

// BudgetShare is one leg of the 50/30/20 split. Percentage is rounded for
// display; comparisons should use Ratio.
type BudgetShare struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
	Ratio      float64         `json:"ratio"`
	Target     float64         `json:"target"`
}

// OverTarget reports whether the unrounded share exceeds the target.
func (b BudgetShare) OverTarget() bool {
	return b.Ratio*100 > b.Target
}

// FinancialMetrics splits outflow into needs (fixed costs) and wants
// (everything else) and relates both plus the remaining savings to income.
type FinancialMetrics struct {
	Income  decimal.Decimal `json:"income"`
	Needs   BudgetShare     `json:"needs"`
	Wants   BudgetShare     `json:"wants"`
	Savings BudgetShare     `json:"savings"`
}

// Metrics computes the 50/30/20 split. Without income all percentages are 0.
// Savings may be negative when outflow exceeds income.
func Metrics(txs []domain.Transaction) FinancialMetrics {
	t := ComputeTotals(txs)
	needs := t.FixedCosts
	wants := t.Expenses.Sub(needs)
	savings := t.Income.Sub(t.Expenses)

	return FinancialMetrics{
		Income:  t.Income,
		Needs:   share(needs, t.Income, NeedsTarget),
		Wants:   share(wants, t.Income, WantsTarget),
		Savings: share(savings, t.Income, SavingsTarget),
	}
}

func share(amount, income decimal.Decimal, target float64) BudgetShare {
	b := BudgetShare{Amount: amount, Target: target}
	if income.IsPositive() {
		b.Ratio = amount.Div(income).InexactFloat64()
		b.Percentage = round1(percentOf(amount, income))
	}
	return b
}
