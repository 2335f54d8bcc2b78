package aggregate

import "github.com/Tomcat63/FinanceAnalyzer/internal/domain"

// TopCount is the size of the largest-transactions list.
const TopCount = 10

// Summary bundles every aggregate of one filtered view.
type Summary struct {
	Totals     Totals               `json:"totals"`
	Categories []CategorySummary    `json:"categories"`
	Series     []Bucket             `json:"series"`
	Metrics    FinancialMetrics     `json:"metrics"`
	Largest    []domain.Transaction `json:"largest"`
}

// Summarize computes all aggregates for txs.
func Summarize(txs []domain.Transaction, g Granularity) Summary {
	return Summary{
		Totals:     ComputeTotals(txs),
		Categories: Categories(txs),
		Series:     Series(txs, g),
		Metrics:    Metrics(txs),
		Largest:    Largest(txs, TopCount),
	}
}
