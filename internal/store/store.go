// Package store holds the transactions of one analysis session in memory.
package store

import (
	"sync"

	"cloud.google.com/go/civil"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// Status is the coarse ingestion state of a Store.
type Status string

const (
	// StatusNoData means nothing has been ingested or the store was cleared.
	StatusNoData Status = "no-data"
	// StatusLoading means an ingestion is in progress.
	StatusLoading Status = "loading"
	// StatusReady means a non-empty transaction set is available.
	StatusReady Status = "ready"
	// StatusError means the last ingestion failed upstream.
	StatusError Status = "error"
)

// Bounds is the booking date range covered by the current set.
type Bounds struct {
	From  civil.Date `json:"from"`
	To    civil.Date `json:"to"`
	Valid bool       `json:"valid"`
}

// Store is a session-scoped container for the ingested transactions.
// It is safe for concurrent use. Transactions are only ever replaced as a
// whole; there is no per-record update.
type Store struct {
	mu           sync.RWMutex
	status       Status
	err          error
	transactions []domain.Transaction
	balance      *domain.CurrentBalance
	history      []domain.BalancePoint
	bounds       Bounds
}

// New creates an empty store in the no-data state.
func New() *Store {
	return &Store{status: StatusNoData}
}

// ReplaceAll swaps in a new transaction set together with the optional
// balance figure and balance history. The inputs are copied. It returns
// the booking date bounds of the new set.
func (s *Store) ReplaceAll(txs []domain.Transaction, balance *domain.CurrentBalance, history []domain.BalancePoint) Bounds {
	bounds := computeBounds(txs)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append([]domain.Transaction(nil), txs...)
	s.history = append([]domain.BalancePoint(nil), history...)
	s.balance = nil
	if balance != nil {
		b := *balance
		s.balance = &b
	}
	s.bounds = bounds

	if len(txs) == 0 {
		s.status = StatusNoData
	} else {
		s.status = StatusReady
	}
	s.err = nil

	return bounds
}

// MarkLoading flags an ingestion as in progress. The current data stays readable.
func (s *Store) MarkLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusLoading
	s.err = nil
}

// MarkFailed records an upstream ingestion failure.
func (s *Store) MarkFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusError
	s.err = err
}

// Clear resets the store to the no-data state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = nil
	s.balance = nil
	s.history = nil
	s.bounds = Bounds{}
	s.status = StatusNoData
	s.err = nil
}

// Status returns the ingestion status.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the error of a failed ingestion, if any.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Transactions returns a copy of the current transaction set.
func (s *Store) Transactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Transaction(nil), s.transactions...)
}

// History returns a copy of the balance history.
func (s *Store) History() []domain.BalancePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BalancePoint(nil), s.history...)
}

// Balance returns the explicit balance if one was supplied, otherwise the
// last point of the balance history. ok is false when neither exists.
func (s *Store) Balance() (domain.CurrentBalance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.balance != nil {
		return *s.balance, true
	}
	if n := len(s.history); n > 0 {
		return domain.CurrentBalance{Value: s.history[n-1].Balance}, true
	}
	return domain.CurrentBalance{}, false
}

// Bounds returns the booking date range of the current set.
func (s *Store) Bounds() Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

func computeBounds(txs []domain.Transaction) Bounds {
	if len(txs) == 0 {
		return Bounds{}
	}
	b := Bounds{From: txs[0].BookingDate, To: txs[0].BookingDate, Valid: true}
	for _, tx := range txs[1:] {
		if tx.BookingDate.Before(b.From) {
			b.From = tx.BookingDate
		}
		if tx.BookingDate.After(b.To) {
			b.To = tx.BookingDate
		}
	}
	return b
}
