package handlers

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/Tomcat63/FinanceAnalyzer/internal/aggregate"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// TransactionSource loads a batch from the upstream store.
type TransactionSource interface {
	Fetch(ctx context.Context, from, to civil.Date) (domain.Batch, error)
}

// Analyzer answers a free-form question about a spending overview.
type Analyzer interface {
	Analyze(ctx context.Context, categories []aggregate.CategorySummary, largest []domain.Transaction, question string) (string, error)
}
