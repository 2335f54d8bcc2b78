package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

const (
	transactionsTable = "transactions"
	currencyEUR       = "EUR"
)

// TransactionSource reads categorized transactions from BigQuery.
type TransactionSource struct {
	client  *bigquery.Client
	project string
	dataset string
}

// NewTransactionSource creates a source with its own BigQuery client.
func NewTransactionSource(ctx context.Context, project, dataset string) (*TransactionSource, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionSource: creating client: %w", err)
	}
	return &TransactionSource{client: client, project: project, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (s *TransactionSource) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Fetch loads the EUR transactions booked between from and to (inclusive)
// as one batch.
func (s *TransactionSource) Fetch(ctx context.Context, from, to civil.Date) (domain.Batch, error) {
	if to.Before(from) {
		return domain.Batch{}, fmt.Errorf("Fetch: range end %s before start %s", to, from)
	}

	rows, err := s.queryByDateRange(ctx, from, to)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("Fetch: %w", err)
	}

	batch, err := BuildBatch(rows)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("Fetch: %w", err)
	}
	return batch, nil
}

func (s *TransactionSource) queryByDateRange(ctx context.Context, from, to civil.Date) ([]*TransactionRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.booking_date,
			t.payee,
			t.memo,
			t.amount,
			t.currency,
			t.balance_after,
			t.category,
			t.is_recurring,
			t.is_fixed_cost
		FROM %s t
		WHERE t.booking_date >= @start_date
		  AND t.booking_date <= @end_date
		  AND t.currency = @currency
		ORDER BY t.booking_date, t.transaction_id
	`, s.table()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: from},
		{Name: "end_date", Value: to},
		{Name: "currency", Value: currencyEUR},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryByDateRange: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("queryByDateRange: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

func (s *TransactionSource) table() string {
	return fmt.Sprintf("`%s.%s.%s`", s.project, s.dataset, transactionsTable)
}
