// Package jobs describes the per-document extraction work of a statement run.
package jobs

import (
	"context"
	"time"
)

// JobStatus is the lifecycle state of an extraction job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed is terminal. Failed documents are not retried.
	JobStatusFailed JobStatus = "failed"
)

// ExtractDocumentJob is the extraction of one statement document.
type ExtractDocumentJob struct {
	JobID string
	RunID string

	// Document is the name used in records and issues.
	Document string

	// URI locates the document in its source (a path or a gs:// URI).
	URI string

	// Index is the document's position in the listing. Results are merged
	// in Index order.
	Index int

	Status      JobStatus
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	// Error is the failure cause when Status is JobStatusFailed.
	Error string
}

// Duration is how long the job ran, or zero when it has not finished.
func (j *ExtractDocumentJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// Publisher accepts extraction jobs.
type Publisher interface {
	PublishExtractDocument(ctx context.Context, job *ExtractDocumentJob) error
}

// Consumer runs published jobs through a handler.
type Consumer interface {
	// Start launches the workers. handler is called once per job.
	Start(ctx context.Context, handler JobHandler) error

	// Drain stops accepting jobs and waits until every published job has
	// been handled.
	Drain(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks that job failed and
// nothing else.
type JobHandler func(ctx context.Context, job *ExtractDocumentJob) error

// JobStore keeps the job history of a run.
type JobStore interface {
	// SaveJob records the current state of job.
	SaveJob(ctx context.Context, job *ExtractDocumentJob) error

	// ListJobs returns the jobs matching filter, ordered by Index.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExtractDocumentJob, error)

	// RunStats counts the jobs of a run by status.
	RunStats(ctx context.Context, runID string) (RunStats, error)
}

// JobFilter selects jobs. Empty fields match everything.
type JobFilter struct {
	RunID  string
	Status JobStatus
}

// RunStats summarizes the jobs of one run.
type RunStats struct {
	Pending   int
	Running   int
	Completed int
	Failed    int

	// Busy is the summed run time of finished jobs.
	Busy time.Duration
}

// Total is the number of jobs counted.
func (s RunStats) Total() int {
	return s.Pending + s.Running + s.Completed + s.Failed
}
