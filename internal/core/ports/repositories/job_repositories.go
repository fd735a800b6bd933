package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/poslink/loyalty-relay/internal/core/domain"
)

// JobReader defines read operations for queued jobs.
type JobReader interface {
	// FindJobByID retrieves a job by its unique identifier. Completed jobs are
	// retained for a while (see MarkCompleted) so recent results stay readable.
	FindJobByID(ctx context.Context, jobID string) (*domain.Job, error)

	// CountByState returns job counts grouped by state.
	CountByState(ctx context.Context) (map[domain.JobState]int64, error)
}

// JobWriter defines the state transitions the queue dispatcher performs.
// The store must guarantee that DequeueNext never hands the same job to two
// workers concurrently.
type JobWriter interface {
	// Enqueue persists a new job in the waiting state.
	Enqueue(ctx context.Context, job domain.Job) error

	// DequeueNext claims the next dispatchable job (lowest priority value first,
	// then arrival order), marks it active, and increments its attempt count.
	// Returns (nil, nil) when no job is ready.
	DequeueNext(ctx context.Context) (*domain.Job, error)

	// MarkCompleted records the handler's result on the job and moves it to the
	// completed state. The store keeps a bounded window of recent completed jobs
	// and prunes the rest.
	MarkCompleted(ctx context.Context, jobID string, result json.RawMessage) error

	// Reschedule returns a failed job to the delayed state to run again at runAt.
	Reschedule(ctx context.Context, jobID string, runAt time.Time, lastError string) error

	// MarkFailed marks a job terminally failed, retaining it for inspection.
	MarkFailed(ctx context.Context, jobID string, lastError string) error

	// ReclaimStale returns active jobs untouched since the cutoff to the waiting
	// state so they dispatch again. Covers workers that died mid-job.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// JobRepositoryFacade combines all job repository operations.
type JobRepositoryFacade interface {
	JobReader
	JobWriter
}
