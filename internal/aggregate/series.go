package aggregate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// Granularity is the bucket size of a time series.
type Granularity string

const (
	Daily   Granularity = "day"
	Monthly Granularity = "month"
)

// ParseGranularity validates a wire value. Empty means daily.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Daily, nil
	case Daily, Monthly:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Bucket holds the income and expenses booked in one period.
type Bucket struct {
	Key      string          `json:"key"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Series buckets transactions by day (YYYY-MM-DD) or month (YYYY-MM) and
// returns the buckets in chronological order.
func Series(txs []domain.Transaction, g Granularity) []Bucket {
	index := make(map[string]int)
	out := make([]Bucket, 0)

	for _, tx := range txs {
		key := bucketKey(tx, g)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Bucket{Key: key, Income: decimal.Zero, Expenses: decimal.Zero})
		}
		if tx.IsIncome() {
			out[i].Income = out[i].Income.Add(tx.Amount)
		} else {
			out[i].Expenses = out[i].Expenses.Add(tx.Outflow())
		}
	}

	// ISO keys sort chronologically.
	slices.SortFunc(out, func(a, b Bucket) int { return strings.Compare(a.Key, b.Key) })
	return out
}

func bucketKey(tx domain.Transaction, g Granularity) string {
	d := tx.BookingDate
	if g == Monthly {
		return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
	}
	return d.String()
}
