package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dvloznov/finance-audit/internal/jobs"
)

// ErrMissingJobID is returned when saving a job that has no ID.
var ErrMissingJobID = errors.New("job ID is required")

// Store keeps job snapshots in memory. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]jobs.ExtractDocumentJob
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]jobs.ExtractDocumentJob)}
}

// SaveJob stores a snapshot of job. Later changes to job are not seen by
// the store until it is saved again.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ExtractDocumentJob) error {
	if job.JobID == "" {
		return ErrMissingJobID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = *job
	return nil
}

func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ExtractDocumentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.ExtractDocumentJob
	for _, job := range s.jobs {
		if filter.RunID != "" && job.RunID != filter.RunID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		snapshot := job
		result = append(result, &snapshot)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Index != result[j].Index {
			return result[i].Index < result[j].Index
		}
		return result[i].JobID < result[j].JobID
	})
	return result, nil
}

func (s *Store) RunStats(ctx context.Context, runID string) (jobs.RunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats jobs.RunStats
	for _, job := range s.jobs {
		if runID != "" && job.RunID != runID {
			continue
		}
		switch job.Status {
		case jobs.JobStatusPending:
			stats.Pending++
		case jobs.JobStatusRunning:
			stats.Running++
		case jobs.JobStatusCompleted:
			stats.Completed++
		case jobs.JobStatusFailed:
			stats.Failed++
		}
		stats.Busy += job.Duration()
	}
	return stats, nil
}

var _ jobs.JobStore = (*Store)(nil)
