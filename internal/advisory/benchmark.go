// Package advisory compares category spending against fixed benchmark shares
// of income and turns significant deviations into advisory tips.
package advisory

import (
	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

const (
	// DeviationThreshold is the absolute deviation from a target share above
	// which a category is flagged. Equality is not flagged.
	DeviationThreshold = 0.05

	// ConfidenceCutoff drops generated tips at or below this confidence.
	ConfidenceCutoff = 0.6

	// OptimalConfidence is the confidence of the synthetic "budget optimal" tip.
	OptimalConfidence = 0.95

	// FallbackConfidence is the confidence of the tip shown when insights
	// could not be generated.
	FallbackConfidence = 0.5
)

var deviationThreshold = decimal.NewFromFloat(DeviationThreshold)

// Target is a benchmark: the share of income a category should not exceed.
type Target struct {
	Category string
	Title    string
	Share    decimal.Decimal
}

// Targets are evaluated in this order.
var Targets = []Target{
	{Category: "Wohnen", Title: "Wohnkosten & Miete", Share: decimal.RequireFromString("0.30")},
	{Category: "Versicherungen", Title: "Vorsorge & Versicherungen", Share: decimal.RequireFromString("0.10")},
	{Category: "Freizeit", Title: "Lebensstil & Freizeit", Share: decimal.RequireFromString("0.30")},
}

// Benchmark is the comparison of one category against its target.
type Benchmark struct {
	Category    string          `json:"category"`
	Title       string          `json:"title"`
	SpentAmount decimal.Decimal `json:"spentAmount"`
	ActualShare decimal.Decimal `json:"actualShare"`
	TargetShare decimal.Decimal `json:"targetShare"`
	Deviation   decimal.Decimal `json:"deviation"`
}

// Flagged reports whether the deviation is significant.
func (b Benchmark) Flagged() bool {
	return IsSignificant(b.Deviation)
}

// IsSignificant reports whether |deviation| is strictly above DeviationThreshold.
func IsSignificant(deviation decimal.Decimal) bool {
	return deviation.Abs().GreaterThan(deviationThreshold)
}

// Comparison is the result of one benchmark run.
type Comparison struct {
	TotalIncome decimal.Decimal `json:"totalIncome"`
	Results     []Benchmark     `json:"results"`
}

// Flagged returns the benchmarks with a significant deviation.
func (c Comparison) Flagged() []Benchmark {
	var out []Benchmark
	for _, b := range c.Results {
		if b.Flagged() {
			out = append(out, b)
		}
	}
	return out
}

// Compare measures every target category's outflow as a share of total
// income. Without income every share is 0.
func Compare(txs []domain.Transaction) Comparison {
	income := decimal.Zero
	spent := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.IsIncome() {
			income = income.Add(tx.Amount)
			continue
		}
		if tx.IsExpense() {
			spent[tx.Category] = spent[tx.Category].Add(tx.Outflow())
		}
	}

	results := make([]Benchmark, 0, len(Targets))
	for _, target := range Targets {
		amount := spent[target.Category]
		share := decimal.Zero
		if income.IsPositive() {
			share = amount.Div(income)
		}
		results = append(results, Benchmark{
			Category:    target.Category,
			Title:       target.Title,
			SpentAmount: amount,
			ActualShare: share,
			TargetShare: target.Share,
			Deviation:   share.Sub(target.Share),
		})
	}

	return Comparison{TotalIncome: income, Results: results}
}
