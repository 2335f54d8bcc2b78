package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// ReconstructHistory derives end-of-day balances from a known current
// balance by undoing transactions from the newest booking backwards. Within
// one day the input order is taken as the booking order. The result is
// ordered by date ascending with one point per booking day.
func ReconstructHistory(txs []domain.Transaction, current decimal.Decimal) []domain.BalancePoint {
	if len(txs) == 0 {
		return nil
	}

	type indexed struct {
		tx  domain.Transaction
		pos int
	}
	ordered := make([]indexed, len(txs))
	for i, tx := range txs {
		ordered[i] = indexed{tx: tx, pos: i}
	}
	slices.SortFunc(ordered, func(a, b indexed) int {
		switch {
		case a.tx.BookingDate.After(b.tx.BookingDate):
			return -1
		case a.tx.BookingDate.Before(b.tx.BookingDate):
			return 1
		}
		return b.pos - a.pos
	})

	var points []domain.BalancePoint
	balance := current
	for _, it := range ordered {
		if n := len(points); n == 0 || points[n-1].Date != it.tx.BookingDate {
			points = append(points, domain.BalancePoint{Date: it.tx.BookingDate, Balance: balance.Round(2)})
		}
		balance = balance.Sub(it.tx.Amount)
	}

	slices.Reverse(points)
	return points
}
