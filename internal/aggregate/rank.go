package aggregate

import (
	"slices"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// Largest returns the n transactions with the highest absolute amount,
// largest first. Equal amounts keep their input order.
func Largest(txs []domain.Transaction, n int) []domain.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b domain.Transaction) int {
		return b.Amount.Abs().Cmp(a.Amount.Abs())
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FixedCosts returns the fixed-cost outflows, newest booking first.
func FixedCosts(txs []domain.Transaction) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range txs {
		if tx.IsFixedCostOutflow() {
			out = append(out, tx)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Transaction) int {
		switch {
		case a.BookingDate.After(b.BookingDate):
			return -1
		case a.BookingDate.Before(b.BookingDate):
			return 1
		}
		return 0
	})
	return out
}
