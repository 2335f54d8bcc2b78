// Package session holds the per-analysis state: the transaction store, the
// advisory engine and the current view settings.
package session

import (
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/aggregate"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
	"github.com/Tomcat63/FinanceAnalyzer/internal/report"
	"github.com/Tomcat63/FinanceAnalyzer/internal/store"
	"github.com/Tomcat63/FinanceAnalyzer/internal/view"
)

// Session is one analysis context. It is safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	store    *store.Store
	advisory *advisory.Engine
	log      zerolog.Logger

	mu       sync.Mutex
	query    view.Query
	lastSeen time.Time
}

// New creates a session around an advisory engine.
func New(id string, engine *advisory.Engine, log zerolog.Logger) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		store:     store.New(),
		advisory:  engine,
		log:       log,
		query:     view.Query{Sort: view.DefaultSort()},
		lastSeen:  now,
	}
}

// Store returns the session's record store.
func (s *Session) Store() *store.Store { return s.store }

// Advisory returns the session's advisory engine.
func (s *Session) Advisory() *advisory.Engine { return s.advisory }

// Ingest replaces the transaction set. A missing balance history is
// reconstructed from the current balance. The view range is reset to the
// bounds of the new set and any advisory batch is superseded.
func (s *Session) Ingest(txs []domain.Transaction, balance *domain.CurrentBalance, history []domain.BalancePoint) store.Bounds {
	if len(history) == 0 && balance != nil {
		history = aggregate.ReconstructHistory(txs, balance.Value)
	}

	bounds := s.store.ReplaceAll(txs, balance, history)
	s.advisory.Reset()

	s.mu.Lock()
	if bounds.Valid {
		from, to := bounds.From, bounds.To
		s.query.From, s.query.To = &from, &to
	} else {
		s.query.From, s.query.To = nil, nil
	}
	s.mu.Unlock()

	s.log.Info().
		Int("transactions", len(txs)).
		Str("from", bounds.From.String()).
		Str("to", bounds.To.String()).
		Msg("Transactions ingested")

	return bounds
}

// Clear drops all data and resets the view range.
func (s *Session) Clear() {
	s.store.Clear()
	s.advisory.Reset()

	s.mu.Lock()
	s.query.From, s.query.To = nil, nil
	s.query.Search = ""
	s.mu.Unlock()

	s.log.Info().Msg("Session cleared")
}

// Query returns the current view settings.
func (s *Session) Query() view.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyQuery(s.query)
}

// SetFilter replaces the date range and search text, keeping the sort.
func (s *Session) SetFilter(from, to *civil.Date, search string) view.Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query.From = copyDate(from)
	s.query.To = copyDate(to)
	s.query.Search = search
	return copyQuery(s.query)
}

// ToggleSort applies a column click to the current sort state.
func (s *Session) ToggleSort(field view.Field) view.Sort {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query.Sort = view.Toggle(s.query.Sort, field)
	return s.query.Sort
}

// View returns the stored transactions filtered and sorted by q.
func (s *Session) View(q view.Query) []domain.Transaction {
	return view.Apply(s.store.Transactions(), q)
}

// CurrentView returns the transactions under the session's own settings.
func (s *Session) CurrentView() []domain.Transaction {
	return s.View(s.Query())
}

// ReportInput assembles the report input from the current view, the store
// balance and the selected tips.
func (s *Session) ReportInput(buildID string, now time.Time) report.Input {
	txs := s.CurrentView()
	totals := aggregate.ComputeTotals(txs)

	var balance domain.CurrentBalance
	if b, ok := s.store.Balance(); ok {
		balance = b
	}

	return report.Input{
		Metrics: report.Metrics{
			Income:     totals.Income,
			Expenses:   totals.Expenses,
			FixedCosts: totals.FixedCosts,
			Balance:    balance.Value,
		},
		Tips:        s.advisory.SelectedTips(),
		Notes:       s.advisory.Notes(),
		FixedCosts:  aggregate.FixedCosts(txs),
		BuildID:     buildID,
		GeneratedAt: now,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last access through the manager.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func copyQuery(q view.Query) view.Query {
	q.From = copyDate(q.From)
	q.To = copyDate(q.To)
	return q
}

func copyDate(d *civil.Date) *civil.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
