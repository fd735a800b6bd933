package services

import (
	"context"
	"time"

	"github.com/poslink/loyalty-relay/internal/core/domain"
)

// QueueSvcFacade is the durable, priority-ordered, retrying work queue backing
// the transaction processor.
type QueueSvcFacade interface {
	// EnqueueTransaction queues an accrual job. Priority is high (1) for
	// totals >= 100, normal (5) otherwise. Returns the job ID.
	EnqueueTransaction(ctx context.Context, txn domain.Transaction) (string, error)

	// EnqueueVoid queues a void-reversal job at high priority so voids never
	// starve behind normal traffic.
	EnqueueVoid(ctx context.Context, txn domain.Transaction) (string, error)

	// EnqueueHistoricalSync queues a backfill job at bulk (lowest) priority.
	EnqueueHistoricalSync(ctx context.Context, start, end time.Time) (string, error)

	// JobStatus reports a job's state, attempts, and last error. Completed jobs
	// are removed from the store and report apperrors.ErrNotFound.
	JobStatus(ctx context.Context, jobID string) (*domain.Job, error)

	// Stats reports job counts by state.
	Stats(ctx context.Context) (*domain.QueueStats, error)

	// Start launches the worker pool. Workers run until Shutdown.
	Start(ctx context.Context)

	// Shutdown stops pulling new jobs and waits for in-flight jobs to finish or
	// for ctx to expire.
	Shutdown(ctx context.Context) error
}
