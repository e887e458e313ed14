package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-audit/internal/jobs"
	"github.com/dvloznov/finance-audit/internal/logger"
)

// ErrClosed is returned when publishing to or starting a drained queue.
var ErrClosed = errors.New("queue is closed")

// Queue is a bounded in-memory worker pool. Jobs are distributed over a
// channel to a fixed number of workers. It is safe for concurrent use.
type Queue struct {
	jobChan chan *jobs.ExtractDocumentJob
	workers int
	wg      sync.WaitGroup
	mu      sync.RWMutex
	store   jobs.JobStore
	started bool
	closed  bool
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before
// PublishExtractDocument blocks; workers is the pool size.
func NewQueue(bufferSize, workers int, store jobs.JobStore) *Queue {
	if workers < 1 {
		workers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Queue{
		jobChan: make(chan *jobs.ExtractDocumentJob, bufferSize),
		workers: workers,
		store:   store,
	}
}

// PublishExtractDocument implements the Publisher interface. Start must be
// called first when the buffer is smaller than the number of jobs.
func (q *Queue) PublishExtractDocument(ctx context.Context, job *jobs.ExtractDocumentJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start implements the Consumer interface. It launches the workers; the
// handler is called concurrently for up to workers jobs at a time.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

// worker processes jobs until the channel is closed by Drain.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for job := range q.jobChan {
		q.processJob(ctx, job, handler)
	}
}

// processJob runs a single job. Failures, panics included, are recorded on
// the job and never retried.
func (q *Queue) processJob(ctx context.Context, job *jobs.ExtractDocumentJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("document", job.Document).
		Logger()

	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	var err error
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("not started: %w", ctxErr)
	} else {
		err = q.run(ctx, job, handler)
	}

	completedAt := time.Now()
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
		log.Warn().Err(err).Msg("job failed")
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Debug().Dur("took", completedAt.Sub(now)).Msg("job completed")
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

func (q *Queue) run(ctx context.Context, job *jobs.ExtractDocumentJob, handler jobs.JobHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

// Drain implements the Consumer interface. It closes intake and waits for
// the workers to finish every queued job, or for ctx to end.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobChan)
	}
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

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
