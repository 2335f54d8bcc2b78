package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeAdvisory represents a benchmark advisory run for one session.
	JobTypeAdvisory JobType = "advisory"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

var (
	// ErrQueueFull is returned when the queue buffer has no free slot.
	ErrQueueFull = errors.New("job queue is full")
	// ErrQueueClosed is returned after the queue has been stopped.
	ErrQueueClosed = errors.New("job queue is closed")
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
)

// AdvisoryJob asks a session's advisory engine to compute a tip batch.
type AdvisoryJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"jobId"`

	// SessionID is the session whose transactions are analysed.
	SessionID string `json:"sessionId"`

	// Refresh supersedes an existing batch instead of keeping it.
	Refresh bool `json:"refresh,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retryCount"`
	MaxRetries int `json:"maxRetries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *AdvisoryJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *AdvisoryJob) GetType() JobType {
	return JobTypeAdvisory
}

// GetStatus implements the Job interface.
func (j *AdvisoryJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishAdvisory enqueues an advisory job. It does not block: a full
	// queue returns ErrQueueFull.
	PublishAdvisory(ctx context.Context, job *AdvisoryJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried;
// errors wrapped with Permanent are not retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *AdvisoryJob) error

	// UpdateJob replaces the state of a stored job. It returns ErrJobNotFound
	// for a job that was never saved or has since been deleted.
	UpdateJob(ctx context.Context, job *AdvisoryJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*AdvisoryJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*AdvisoryJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	SessionID string
	Status    JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
