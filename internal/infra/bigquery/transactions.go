package bigquery

import (
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// DefaultCategory is assigned to rows the upstream left uncategorized.
const DefaultCategory = "Sonstiges"

// TransactionRow is one row of the categorized transactions table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	BookingDate civil.Date `bigquery:"booking_date"` // REQUIRED

	Payee bigquery.NullString `bigquery:"payee"` // NULLABLE
	Memo  string              `bigquery:"memo"`  // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED

	BalanceAfter *big.Rat `bigquery:"balance_after"` // NULLABLE NUMERIC

	Category    bigquery.NullString `bigquery:"category"`      // NULLABLE
	IsRecurring bigquery.NullBool   `bigquery:"is_recurring"`  // NULLABLE
	IsFixedCost bigquery.NullBool   `bigquery:"is_fixed_cost"` // NULLABLE
}

// ToDomain maps the row to a transaction. NULL flags read as false.
func (r *TransactionRow) ToDomain() (domain.Transaction, error) {
	amount, err := ratToDecimal(r.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ToDomain: %s: amount: %w", r.TransactionID, err)
	}

	category := DefaultCategory
	if r.Category.Valid && r.Category.StringVal != "" {
		category = r.Category.StringVal
	}

	return domain.Transaction{
		BookingDate: r.BookingDate,
		Payee:       r.Payee.StringVal,
		Memo:        r.Memo,
		Amount:      amount,
		Category:    category,
		Recurring:   r.IsRecurring.Valid && r.IsRecurring.Bool,
		FixedCost:   r.IsFixedCost.Valid && r.IsFixedCost.Bool,
	}, nil
}

// BuildBatch maps rows ordered by booking date into a batch. The balance
// history takes the last balance_after reported per day; rows without one
// are skipped for the history only.
func BuildBatch(rows []*TransactionRow) (domain.Batch, error) {
	batch := domain.Batch{Transactions: make([]domain.Transaction, 0, len(rows))}

	for _, r := range rows {
		tx, err := r.ToDomain()
		if err != nil {
			return domain.Batch{}, fmt.Errorf("BuildBatch: %w", err)
		}
		batch.Transactions = append(batch.Transactions, tx)

		if r.BalanceAfter == nil {
			continue
		}
		balance, err := ratToDecimal(r.BalanceAfter)
		if err != nil {
			return domain.Batch{}, fmt.Errorf("BuildBatch: %s: balance: %w", r.TransactionID, err)
		}
		point := domain.BalancePoint{Date: r.BookingDate, Balance: balance}
		if n := len(batch.BalanceHistory); n > 0 && batch.BalanceHistory[n-1].Date == r.BookingDate {
			batch.BalanceHistory[n-1] = point
		} else {
			batch.BalanceHistory = append(batch.BalanceHistory, point)
		}
	}

	return batch, nil
}

// ratToDecimal converts a BigQuery NUMERIC (scale 9) without going through float64.
func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Decimal{}, fmt.Errorf("missing value")
	}
	return decimal.NewFromString(r.FloatString(9))
}
