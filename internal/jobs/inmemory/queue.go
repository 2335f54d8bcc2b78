package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs"
)

const (
	defaultWorkers    = 5
	defaultMaxRetries = 3
)

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
type Queue struct {
	// RetryBackoff is multiplied by the retry count to delay a retry.
	RetryBackoff time.Duration

	jobChan   chan *jobs.AdvisoryJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	workers   int
	log       zerolog.Logger
	closed    bool
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can wait before PublishAdvisory
// returns jobs.ErrQueueFull; workers defaults to 5 when not positive.
func NewQueue(bufferSize, workers int, store jobs.JobStore, log zerolog.Logger) *Queue {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Queue{
		RetryBackoff: time.Second,
		jobChan:      make(chan *jobs.AdvisoryJob, bufferSize),
		closeChan:    make(chan struct{}),
		store:        store,
		workers:      workers,
		log:          log,
	}
}

// PublishAdvisory implements the Publisher interface. The queue keeps its
// own copy of job; the caller's value only receives the generated id and
// the initial status.
func (q *Queue) PublishAdvisory(ctx context.Context, job *jobs.AdvisoryJob) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = defaultMaxRetries
	}

	queued := *job
	return q.enqueue(ctx, &queued, false)
}

// enqueue stores job and hands it to the workers. A retry only updates the
// stored job, so a job deleted in the meantime is dropped with
// jobs.ErrJobNotFound instead of being stored again.
func (q *Queue) enqueue(ctx context.Context, job *jobs.AdvisoryJob, retry bool) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return jobs.ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if q.store != nil {
		save := q.store.SaveJob
		if retry {
			save = q.store.UpdateJob
		}
		if err := save(ctx, job); err != nil {
			return fmt.Errorf("enqueue: save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	default:
		if q.store != nil {
			_ = q.store.UpdateJobStatus(ctx, job.JobID, jobs.JobStatusFailed, jobs.ErrQueueFull.Error())
		}
		return jobs.ErrQueueFull
	}
}

// Start implements the Consumer interface.
// It starts the worker goroutines that call handler for each job.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return jobs.ErrQueueClosed
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	q.log.Info().Int("workers", q.workers).Int("buffer", cap(q.jobChan)).Msg("Job queue started")
	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.AdvisoryJob, handler jobs.JobHandler) {
	log := q.log.With().Str("job_id", job.JobID).Str("session_id", job.SessionID).Logger()

	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	if !q.update(ctx, job, log) {
		return
	}

	// Only errors not marked jobs.Permanent are retried.
	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()

		if !jobs.IsPermanent(err) && job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.JobStatusRetrying

			backoff := time.Duration(job.RetryCount) * q.RetryBackoff
			log.Warn().Err(err).Int("retry", job.RetryCount).Dur("backoff", backoff).Msg("Job failed, retrying")

			retry := *job
			retry.Status = jobs.JobStatusPending
			retry.StartedAt = nil
			retry.CompletedAt = nil
			time.AfterFunc(backoff, func() {
				err := q.enqueue(ctx, &retry, true)
				switch {
				case errors.Is(err, jobs.ErrJobNotFound):
					log.Debug().Msg("Job deleted, retry dropped")
				case err != nil:
					log.Error().Err(err).Msg("Failed to re-enqueue job")
				}
			})
		} else {
			job.Status = jobs.JobStatusFailed
			log.Error().Err(err).Int("retries", job.RetryCount).Msg("Job failed")
		}
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Info().Dur("duration", completedAt.Sub(now)).Msg("Job completed")
	}

	q.update(ctx, job, log)
}

// update writes job back to the store. It reports false when the job is no
// longer stored, which happens once its session has ended.
func (q *Queue) update(ctx context.Context, job *jobs.AdvisoryJob, log zerolog.Logger) bool {
	if q.store == nil {
		return true
	}
	err := q.store.UpdateJob(ctx, job)
	if errors.Is(err, jobs.ErrJobNotFound) {
		log.Debug().Msg("Job deleted, not updating")
		return false
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to update job")
	}
	return true
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
