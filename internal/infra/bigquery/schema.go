package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

// TransactionsSchema is the schema of the transactions table read by
// TransactionSource. Column names match the TransactionRow tags.
func TransactionsSchema() bigquery.Schema {
	return bigquery.Schema{
		{Name: "transaction_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "booking_date", Type: bigquery.DateFieldType, Required: true},
		{Name: "payee", Type: bigquery.StringFieldType},
		{Name: "memo", Type: bigquery.StringFieldType, Required: true},
		{Name: "amount", Type: bigquery.NumericFieldType, Required: true},
		{Name: "currency", Type: bigquery.StringFieldType, Required: true},
		{Name: "balance_after", Type: bigquery.NumericFieldType},
		{Name: "category", Type: bigquery.StringFieldType},
		{Name: "is_recurring", Type: bigquery.BooleanFieldType},
		{Name: "is_fixed_cost", Type: bigquery.BooleanFieldType},
	}
}

// TransactionsTableMetadata describes the table partitioned by booking date
// and clustered by category.
func TransactionsTableMetadata() *bigquery.TableMetadata {
	return &bigquery.TableMetadata{
		Description: "Categorized bank transactions",
		Schema:      TransactionsSchema(),
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.MonthPartitioningType,
			Field: "booking_date",
		},
		Clustering: &bigquery.Clustering{Fields: []string{"category"}},
	}
}

// EnsureTransactionsTable creates the dataset and the transactions table if
// they do not exist. It reports whether the table was created.
func (s *TransactionSource) EnsureTransactionsTable(ctx context.Context, location string) (bool, error) {
	ds := s.client.Dataset(s.dataset)
	if err := ds.Create(ctx, &bigquery.DatasetMetadata{Location: location}); err != nil && !isAlreadyExists(err) {
		return false, fmt.Errorf("EnsureTransactionsTable: create dataset %s: %w", s.dataset, err)
	}

	err := ds.Table(transactionsTable).Create(ctx, TransactionsTableMetadata())
	if isAlreadyExists(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("EnsureTransactionsTable: create table: %w", err)
	}
	return true, nil
}

func isAlreadyExists(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
