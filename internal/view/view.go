// Package view derives filtered and ordered views of a transaction set.
package view

import (
	"cmp"
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// Query describes one view. A nil bound is open on that side.
type Query struct {
	From   *civil.Date `json:"from,omitempty"`
	To     *civil.Date `json:"to,omitempty"`
	Search string      `json:"search,omitempty"`
	Sort   Sort        `json:"sort"`
}

// Apply returns the transactions matching q in the requested order.
// The input slice is never modified.
func Apply(txs []domain.Transaction, q Query) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))

	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return out
	}

	// Whitespace-only search means no filter; otherwise the query is matched
	// as typed, surrounding spaces included.
	search := strings.TrimSpace(q.Search) != ""
	needle := strings.ToLower(q.Search)
	for _, tx := range txs {
		if !inRange(tx.BookingDate, q.From, q.To) {
			continue
		}
		if search && !matches(tx, needle) {
			continue
		}
		out = append(out, tx)
	}

	sortStable(out, q.Sort)
	return out
}

// Filter applies only the date and search predicates, keeping input order.
func Filter(txs []domain.Transaction, q Query) []domain.Transaction {
	q.Sort = Sort{}
	return Apply(txs, q)
}

func inRange(d civil.Date, from, to *civil.Date) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func matches(tx domain.Transaction, needle string) bool {
	return strings.Contains(strings.ToLower(tx.Payee), needle) ||
		strings.Contains(strings.ToLower(tx.Memo), needle)
}

func sortStable(txs []domain.Transaction, s Sort) {
	compare := comparator(s.Field)
	if compare == nil {
		return
	}
	if s.Direction == Desc {
		asc := compare
		compare = func(a, b domain.Transaction) int { return asc(b, a) }
	}
	slices.SortStableFunc(txs, compare)
}

func comparator(f Field) func(a, b domain.Transaction) int {
	switch f {
	case FieldDate:
		return func(a, b domain.Transaction) int { return compareDates(a.BookingDate, b.BookingDate) }
	case FieldAmount:
		return func(a, b domain.Transaction) int { return a.Amount.Cmp(b.Amount) }
	case FieldPayee:
		return func(a, b domain.Transaction) int { return strings.Compare(a.Payee, b.Payee) }
	case FieldMemo:
		return func(a, b domain.Transaction) int { return strings.Compare(a.Memo, b.Memo) }
	case FieldCategory:
		return func(a, b domain.Transaction) int { return strings.Compare(a.Category, b.Category) }
	case FieldRecurring:
		return func(a, b domain.Transaction) int { return compareBools(a.Recurring, b.Recurring) }
	case FieldFixedCost:
		return func(a, b domain.Transaction) int { return compareBools(a.FixedCost, b.FixedCost) }
	}
	return nil
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	return cmp.Compare(boolRank(a), boolRank(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
