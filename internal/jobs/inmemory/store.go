package inmemory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs"
)

// Store is an in-memory implementation of JobStore, safe for concurrent use.
// Jobs live as long as the process, like the sessions they refer to.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.AdvisoryJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.AdvisoryJob),
	}
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.AdvisoryJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Create a copy to avoid external modifications
	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	return nil
}

// UpdateJob implements the JobStore interface.
func (s *Store) UpdateJob(ctx context.Context, job *jobs.AdvisoryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.JobID]; !exists {
		return fmt.Errorf("UpdateJob: %w: %s", jobs.ErrJobNotFound, job.JobID)
	}

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	return nil
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.AdvisoryJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("GetJob: %w: %s", jobs.ErrJobNotFound, jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs implements the JobStore interface. Jobs are returned oldest first.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.AdvisoryJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.AdvisoryJob{}
	for _, job := range s.jobs {
		if filter.SessionID != "" && job.SessionID != filter.SessionID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}

		jobCopy := *job
		result = append(result, &jobCopy)
	}

	slices.SortFunc(result, func(a, b *jobs.AdvisoryJob) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.JobID, b.JobID)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.AdvisoryJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// UpdateJobStatus implements the JobStore interface.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("UpdateJobStatus: %w: %s", jobs.ErrJobNotFound, jobID)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	return nil
}

// DeleteSession drops every job of an ended session and returns how many
// were removed.
func (s *Store) DeleteSession(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, job := range s.jobs {
		if job.SessionID == sessionID {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

var _ jobs.JobStore = (*Store)(nil)
