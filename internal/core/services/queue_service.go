package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portsrepo "github.com/poslink/loyalty-relay/internal/core/ports/repositories"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RetryPolicy controls how failed jobs are retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// NextDelay returns the backoff before the retry following the given attempt
// number (1-based). Exponential: base * multiplier^(attempt-1).
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	scale := math.Pow(p.Multiplier, float64(attempt-1))
	return time.Duration(float64(p.BaseDelay) * scale)
}

type queueSvc struct {
	repo         portsrepo.JobRepositoryFacade
	processor    portssvc.ProcessorSvcFacade
	policy       RetryPolicy
	workerCount  int
	pollInterval time.Duration
	jobTimeout   time.Duration
	syncTimeout  time.Duration
	logger       *slog.Logger

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// NewQueueService creates the durable queue dispatcher over the job store.
// jobTimeout bounds a single transaction or void job; syncTimeout bounds a
// historical backfill, which legitimately runs much longer.
func NewQueueService(
	repo portsrepo.JobRepositoryFacade,
	processor portssvc.ProcessorSvcFacade,
	policy RetryPolicy,
	workerCount int,
	pollInterval time.Duration,
	jobTimeout time.Duration,
	syncTimeout time.Duration,
	logger *slog.Logger,
) portssvc.QueueSvcFacade {
	return &queueSvc{
		repo:         repo,
		processor:    processor,
		policy:       policy,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		jobTimeout:   jobTimeout,
		syncTimeout:  syncTimeout,
		logger:       logger,
		stop:         make(chan struct{}),
	}
}

var _ portssvc.QueueSvcFacade = (*queueSvc)(nil)

// Large transactions dispatch ahead of normal traffic.
var highValueThreshold = decimal.NewFromInt(100)

func (s *queueSvc) EnqueueTransaction(ctx context.Context, txn domain.Transaction) (string, error) {
	priority := domain.PriorityNormal
	if txn.TotalAmount.GreaterThanOrEqual(highValueThreshold) {
		priority = domain.PriorityHigh
	}
	payload, err := json.Marshal(domain.TransactionJobPayload{Transaction: txn})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode transaction payload: %v", apperrors.ErrInternal, err)
	}
	return s.enqueue(ctx, domain.JobProcessTransaction, payload, priority)
}

func (s *queueSvc) EnqueueVoid(ctx context.Context, txn domain.Transaction) (string, error) {
	payload, err := json.Marshal(domain.TransactionJobPayload{Transaction: txn})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode void payload: %v", apperrors.ErrInternal, err)
	}
	return s.enqueue(ctx, domain.JobVoidTransaction, payload, domain.PriorityHigh)
}

func (s *queueSvc) EnqueueHistoricalSync(ctx context.Context, start, end time.Time) (string, error) {
	payload, err := json.Marshal(domain.HistoricalSyncJobPayload{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode sync payload: %v", apperrors.ErrInternal, err)
	}
	return s.enqueue(ctx, domain.JobHistoricalSync, payload, domain.PriorityBulk)
}

func (s *queueSvc) enqueue(ctx context.Context, jobType domain.JobType, payload json.RawMessage, priority int) (string, error) {
	now := time.Now().UTC()
	job := domain.Job{
		JobID:       uuid.NewString(),
		Type:        jobType,
		Payload:     payload,
		Priority:    priority,
		MaxAttempts: s.policy.MaxAttempts,
		State:       domain.JobWaiting,
		RunAt:       now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Enqueue(ctx, job); err != nil {
		return "", err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Job enqueued",
		slog.String("job_id", job.JobID),
		slog.String("job_type", string(jobType)),
		slog.Int("priority", priority))

	return job.JobID, nil
}

func (s *queueSvc) JobStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.repo.FindJobByID(ctx, jobID)
}

func (s *queueSvc) Stats(ctx context.Context) (*domain.QueueStats, error) {
	counts, err := s.repo.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	stats := &domain.QueueStats{
		Waiting:   counts[domain.JobWaiting],
		Active:    counts[domain.JobActive],
		Delayed:   counts[domain.JobDelayed],
		Failed:    counts[domain.JobFailed],
		Completed: counts[domain.JobCompleted],
	}
	stats.Total = stats.Waiting + stats.Active + stats.Delayed + stats.Failed + stats.Completed
	return stats, nil
}

// Start launches the worker pool. Workers poll the store and run until
// Shutdown is called or ctx is cancelled.
func (s *queueSvc) Start(ctx context.Context) {
	// A previous run may have died mid-job. This is the only dispatcher over
	// the store, so any active row at startup is an orphan.
	if reclaimed, err := s.repo.ReclaimStale(ctx, 0); err != nil {
		s.logger.Error("Failed to reclaim orphaned jobs", slog.String("error", err.Error()))
	} else if reclaimed > 0 {
		s.logger.Warn("Reclaimed orphaned jobs", slog.Int64("count", reclaimed))
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.logger.Info("Queue workers started", slog.Int("worker_count", s.workerCount))
}

func (s *queueSvc) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	logger := s.logger.With(slog.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		job, err := s.repo.DequeueNext(ctx)
		if err != nil {
			logger.Error("Dequeue failed", slog.String("error", err.Error()))
			s.idle(ctx)
			continue
		}
		if job == nil {
			s.idle(ctx)
			continue
		}

		s.execute(ctx, logger, job)
	}
}

// idle waits one poll interval, or returns early on shutdown.
func (s *queueSvc) idle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.stop:
	case <-time.After(s.pollInterval):
	}
}

// execute dispatches a claimed job to its handler and settles the outcome:
// success records the result on the row, a terminal error retains it as
// failed, and a retriable error reschedules it with backoff until attempts
// run out. The handler runs under a deadline so a hung backend call cannot
// pin a worker.
func (s *queueSvc) execute(ctx context.Context, logger *slog.Logger, job *domain.Job) {
	jobLogger := logger.With(
		slog.String("job_id", job.JobID),
		slog.String("job_type", string(job.Type)),
		slog.Int("attempt", job.Attempts))
	jobCtx := middleware.ContextWithLogger(ctx, jobLogger)

	timeout := s.jobTimeout
	if job.Type == domain.JobHistoricalSync {
		timeout = s.syncTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, timeout)
		defer cancel()
	}

	result, err := s.dispatch(jobCtx, job)
	if err == nil {
		encoded, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			jobLogger.Error("Failed to encode job result", slog.String("error", marshalErr.Error()))
			encoded = nil
		}
		if err := s.repo.MarkCompleted(ctx, job.JobID, encoded); err != nil {
			jobLogger.Error("Failed to record completed job", slog.String("error", err.Error()))
			return
		}
		jobLogger.Info("Job completed")
		return
	}

	if isTerminal(err) || job.Attempts >= job.MaxAttempts {
		if markErr := s.repo.MarkFailed(ctx, job.JobID, err.Error()); markErr != nil {
			jobLogger.Error("Failed to mark job failed", slog.String("error", markErr.Error()))
			return
		}
		jobLogger.Error("Job failed terminally",
			slog.String("error", err.Error()),
			slog.Int("max_attempts", job.MaxAttempts))
		return
	}

	delay := s.policy.NextDelay(job.Attempts)
	runAt := time.Now().UTC().Add(delay)
	if rescheduleErr := s.repo.Reschedule(ctx, job.JobID, runAt, err.Error()); rescheduleErr != nil {
		jobLogger.Error("Failed to reschedule job", slog.String("error", rescheduleErr.Error()))
		return
	}
	jobLogger.Warn("Job rescheduled",
		slog.String("error", err.Error()),
		slog.Duration("delay", delay))
}

// dispatch runs the handler for the job type and returns its result for
// recording on the row.
func (s *queueSvc) dispatch(ctx context.Context, job *domain.Job) (any, error) {
	switch job.Type {
	case domain.JobProcessTransaction:
		var payload domain.TransactionJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: malformed transaction payload: %v", apperrors.ErrValidation, err)
		}
		return s.processor.ProcessTransaction(ctx, payload.Transaction)

	case domain.JobVoidTransaction:
		var payload domain.TransactionJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: malformed void payload: %v", apperrors.ErrValidation, err)
		}
		return s.processor.ProcessVoid(ctx, payload.Transaction)

	case domain.JobHistoricalSync:
		var payload domain.HistoricalSyncJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: malformed sync payload: %v", apperrors.ErrValidation, err)
		}
		start, err := time.Parse("2006-01-02", payload.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start date %q: %v", apperrors.ErrValidation, payload.StartDate, err)
		}
		end, err := time.Parse("2006-01-02", payload.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad end date %q: %v", apperrors.ErrValidation, payload.EndDate, err)
		}
		return s.processor.SyncHistorical(ctx, start, end)

	default:
		return nil, fmt.Errorf("%w: unknown job type %q", apperrors.ErrValidation, job.Type)
	}
}

// isTerminal reports whether an error can never succeed on retry.
func isTerminal(err error) bool {
	return errors.Is(err, apperrors.ErrInsufficientBalance) || errors.Is(err, apperrors.ErrValidation)
}

// Shutdown stops pulling new jobs and waits for in-flight jobs to finish or
// for ctx to expire.
func (s *queueSvc) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Queue workers drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue shutdown timed out: %w", ctx.Err())
	}
}
