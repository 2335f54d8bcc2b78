package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/logger"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// EngineFactory builds the advisory engine for a new session.
type EngineFactory func(log zerolog.Logger) *advisory.Engine

// Manager is the registry of live sessions.
type Manager struct {
	newEngine EngineFactory
	ttl       time.Duration
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	onEnd    []func(id string)

	cron *cron.Cron
}

// NewManager creates a registry whose sessions expire after ttl without access.
func NewManager(newEngine EngineFactory, ttl time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		newEngine: newEngine,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// OnEnd registers fn to run after a session is ended or expired.
func (m *Manager) OnEnd(fn func(id string)) {
	m.mu.Lock()
	m.onEnd = append(m.onEnd, fn)
	m.mu.Unlock()
}

func (m *Manager) ended(id string) {
	m.mu.RLock()
	hooks := m.onEnd
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(id)
	}
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	id := uuid.New().String()
	log := logger.ForSession(m.log, id)

	s := New(id, m.newEngine(log), log)
	now := m.now()
	s.CreatedAt = now
	s.lastSeen = now

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info().Msg("Session created")
	return s
}

// Get returns the session and records the access.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.touch(m.now())
	return s, nil
}

// End discards the session and all of its data.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.advisory.Reset()
	m.ended(id)
	s.log.Info().Msg("Session ended")
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.advisory.Reset()
		m.ended(s.ID)
		s.log.Info().Time("last_seen", s.LastSeen()).Msg("Session expired")
	}
	return len(expired)
}

// StartSweeper schedules Sweep every interval.
func (m *Manager) StartSweeper(interval time.Duration) error {
	c := cron.New()
	if _, err := c.AddFunc("@every "+interval.String(), func() {
		if n := m.Sweep(); n > 0 {
			m.log.Info().Int("expired", n).Int("active", m.Len()).Msg("Session sweep finished")
		}
	}); err != nil {
		return fmt.Errorf("StartSweeper: schedule: %w", err)
	}

	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()

	c.Start()
	m.log.Info().Dur("interval", interval).Dur("ttl", m.ttl).Msg("Session sweeper started")
	return nil
}

// StopSweeper stops the schedule and waits for a running sweep, bounded by ctx.
func (m *Manager) StopSweeper(ctx context.Context) error {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
