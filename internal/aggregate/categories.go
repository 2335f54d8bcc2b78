package aggregate

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// CategorySummary is the outflow of one category within a filtered set.
// Share is the unrounded percentage of total outflow.
type CategorySummary struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
	Share  float64         `json:"share"`
}

// RoundedShare returns Share with one decimal place.
func (c CategorySummary) RoundedShare() float64 {
	return round1(c.Share)
}

// CategoryOrder selects the key categories are ordered by.
type CategoryOrder string

const (
	ByAmount CategoryOrder = "amount"
	ByCount  CategoryOrder = "count"
)

// ParseCategoryOrder validates a wire value.
func ParseCategoryOrder(s string) (CategoryOrder, error) {
	switch o := CategoryOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case ByAmount, ByCount:
		return o, nil
	}
	return "", fmt.Errorf("unknown category order %q", s)
}

// Categories groups outflows by category. Only negative amounts count.
// The result is ordered by amount descending, ties by name.
func Categories(txs []domain.Transaction) []CategorySummary {
	index := make(map[string]int)
	out := make([]CategorySummary, 0)
	expenses := decimal.Zero

	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategorySummary{Name: tx.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(tx.Outflow())
		out[i].Count++
		expenses = expenses.Add(tx.Outflow())
	}

	for i := range out {
		out[i].Share = percentOf(out[i].Amount, expenses)
	}

	slices.SortStableFunc(out, func(a, b CategorySummary) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// SortCategories returns a copy of s ordered by the given key. desc puts the
// largest first. Ties keep their relative order.
func SortCategories(s []CategorySummary, by CategoryOrder, desc bool) []CategorySummary {
	out := slices.Clone(s)
	compare := func(a, b CategorySummary) int {
		if by == ByCount {
			return cmp.Compare(a.Count, b.Count)
		}
		return a.Amount.Cmp(b.Amount)
	}
	slices.SortStableFunc(out, func(a, b CategorySummary) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}
