package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portsrepo "github.com/poslink/loyalty-relay/internal/core/ports/repositories"
	"github.com/poslink/loyalty-relay/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeJobRepo is an in-memory job store honoring the same dispatch contract as
// the Postgres one: lowest priority value first, then arrival order, only jobs
// whose run_at has passed, never the same job to two workers.
type fakeJobRepo struct {
	mu   sync.Mutex
	seq  int
	jobs map[string]*fakeJob
}

type fakeJob struct {
	domain.Job
	seq int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*fakeJob)}
}

var _ portsrepo.JobRepositoryFacade = (*fakeJobRepo)(nil)

func (f *fakeJobRepo) Enqueue(_ context.Context, job domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.jobs[job.JobID] = &fakeJob{Job: job, seq: f.seq}
	return nil
}

func (f *fakeJobRepo) DequeueNext(_ context.Context) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	var best *fakeJob
	for _, j := range f.jobs {
		if j.State != domain.JobWaiting && j.State != domain.JobDelayed {
			continue
		}
		if j.RunAt.After(now) {
			continue
		}
		if best == nil || j.Priority < best.Priority || (j.Priority == best.Priority && j.seq < best.seq) {
			best = j
		}
	}
	if best == nil {
		return nil, nil
	}

	best.State = domain.JobActive
	best.Attempts++
	best.UpdatedAt = now
	claimed := best.Job
	return &claimed, nil
}

func (f *fakeJobRepo) MarkCompleted(_ context.Context, jobID string, result json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return apperrors.ErrNotFound
	}
	j.State = domain.JobCompleted
	j.Result = result
	return nil
}

func (f *fakeJobRepo) ReclaimStale(_ context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var reclaimed int64
	for _, j := range f.jobs {
		if j.State == domain.JobActive && j.UpdatedAt.Before(cutoff) {
			j.State = domain.JobWaiting
			reclaimed++
		}
	}
	return reclaimed, nil
}

func (f *fakeJobRepo) Reschedule(_ context.Context, jobID string, runAt time.Time, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return apperrors.ErrNotFound
	}
	j.State = domain.JobDelayed
	j.RunAt = runAt
	j.LastError = lastError
	return nil
}

func (f *fakeJobRepo) MarkFailed(_ context.Context, jobID string, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return apperrors.ErrNotFound
	}
	j.State = domain.JobFailed
	j.LastError = lastError
	return nil
}

func (f *fakeJobRepo) FindJobByID(_ context.Context, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := j.Job
	return &copied, nil
}

func (f *fakeJobRepo) CountByState(_ context.Context) (map[domain.JobState]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.JobState]int64)
	for _, j := range f.jobs {
		counts[j.State]++
	}
	return counts, nil
}

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy(maxAttempts int) services.RetryPolicy {
	return services.RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: 5 * time.Millisecond, Multiplier: 2.0}
}

func queueTransaction(id, amount string) domain.Transaction {
	return domain.Transaction{
		TransactionID: id,
		StoreID:       "STORE-1",
		TotalAmount:   decimal.RequireFromString(amount),
		Status:        domain.TransactionCompleted,
	}
}

// --- RetryPolicy ---

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := services.RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2.0}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, time.Second, policy.NextDelay(0)) // clamped
}

// --- Enqueue priorities ---

func TestEnqueuePriorities(t *testing.T) {
	repo := newFakeJobRepo()
	queue := services.NewQueueService(repo, new(MockProcessorService), testPolicy(3), 1, 5*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx := context.Background()

	smallID, err := queue.EnqueueTransaction(ctx, queueTransaction("TXN-S", "20.00"))
	require.NoError(t, err)
	largeID, err := queue.EnqueueTransaction(ctx, queueTransaction("TXN-L", "150.00"))
	require.NoError(t, err)
	voidID, err := queue.EnqueueVoid(ctx, queueTransaction("TXN-V", "20.00"))
	require.NoError(t, err)
	syncID, err := queue.EnqueueHistoricalSync(ctx, time.Now(), time.Now())
	require.NoError(t, err)

	for id, want := range map[string]int{
		smallID: domain.PriorityNormal,
		largeID: domain.PriorityHigh,
		voidID:  domain.PriorityHigh,
		syncID:  domain.PriorityBulk,
	} {
		job, err := queue.JobStatus(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, job.Priority)
		assert.Equal(t, domain.JobWaiting, job.State)
		assert.Equal(t, 3, job.MaxAttempts)
	}
}

// --- Dispatch order ---

func TestWorkerDispatchesByPriority(t *testing.T) {
	repo := newFakeJobRepo()
	processor := new(MockProcessorService)
	queue := services.NewQueueService(repo, processor, testPolicy(3), 1, 5*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var order []string
	record := func(label string) {
		mu.Lock()
		order = append(order, label)
		mu.Unlock()
	}

	processor.On("SyncHistorical", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { record("sync") }).
		Return(&domain.SyncResult{}, nil).Once()
	processor.On("ProcessTransaction", mock.Anything, mock.MatchedBy(func(txn domain.Transaction) bool { return txn.TransactionID == "TXN-N" })).
		Run(func(mock.Arguments) { record("normal") }).
		Return(&domain.ProcessResult{}, nil).Once()
	processor.On("ProcessVoid", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { record("void") }).
		Return(&domain.VoidResult{}, nil).Once()

	// Enqueued worst-priority first; the worker must still run void before
	// normal before sync.
	_, err := queue.EnqueueHistoricalSync(ctx, time.Now(), time.Now())
	require.NoError(t, err)
	_, err = queue.EnqueueTransaction(ctx, queueTransaction("TXN-N", "20.00"))
	require.NoError(t, err)
	_, err = queue.EnqueueVoid(ctx, queueTransaction("TXN-V", "20.00"))
	require.NoError(t, err)

	queue.Start(ctx)
	defer queue.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		stats, err := queue.Stats(context.Background())
		return err == nil && stats.Completed == 3
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"void", "normal", "sync"}, order)
}

// --- Retry behaviour ---

func TestWorkerRetriesWithBackoff(t *testing.T) {
	repo := newFakeJobRepo()
	processor := new(MockProcessorService)
	queue := services.NewQueueService(repo, processor, testPolicy(5), 1, 2*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transient := fmt.Errorf("%w: loyalty backend unreachable", apperrors.ErrExternalService)
	processor.On("ProcessTransaction", mock.Anything, mock.Anything).Return(nil, transient).Twice()
	processor.On("ProcessTransaction", mock.Anything, mock.Anything).Return(&domain.ProcessResult{}, nil).Once()

	_, err := queue.EnqueueTransaction(ctx, queueTransaction("TXN-R", "20.00"))
	require.NoError(t, err)

	queue.Start(ctx)
	defer queue.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		stats, err := queue.Stats(context.Background())
		return err == nil && stats.Completed == 1
	}, 2*time.Second, 5*time.Millisecond)

	processor.AssertNumberOfCalls(t, "ProcessTransaction", 3)
}

func TestWorkerFailsJobAfterMaxAttempts(t *testing.T) {
	repo := newFakeJobRepo()
	processor := new(MockProcessorService)
	queue := services.NewQueueService(repo, processor, testPolicy(2), 1, 2*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transient := fmt.Errorf("%w: loyalty backend unreachable", apperrors.ErrExternalService)
	processor.On("ProcessTransaction", mock.Anything, mock.Anything).Return(nil, transient)

	jobID, err := queue.EnqueueTransaction(ctx, queueTransaction("TXN-F", "20.00"))
	require.NoError(t, err)

	queue.Start(ctx)
	defer queue.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		job, err := queue.JobStatus(context.Background(), jobID)
		return err == nil && job.State == domain.JobFailed
	}, 2*time.Second, 5*time.Millisecond)

	// Failed jobs are retained for inspection, with the last error recorded.
	job, err := queue.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 2, job.Attempts)
	assert.Contains(t, job.LastError, "unreachable")
	processor.AssertNumberOfCalls(t, "ProcessTransaction", 2)
}

func TestWorkerDoesNotRetryInsufficientBalance(t *testing.T) {
	repo := newFakeJobRepo()
	processor := new(MockProcessorService)
	queue := services.NewQueueService(repo, processor, testPolicy(5), 1, 2*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	terminal := fmt.Errorf("%w: balance 10, requested 800", apperrors.ErrInsufficientBalance)
	processor.On("ProcessVoid", mock.Anything, mock.Anything).Return(nil, terminal)

	jobID, err := queue.EnqueueVoid(ctx, queueTransaction("TXN-T", "75.00"))
	require.NoError(t, err)

	queue.Start(ctx)
	defer queue.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		job, err := queue.JobStatus(context.Background(), jobID)
		return err == nil && job.State == domain.JobFailed
	}, 2*time.Second, 5*time.Millisecond)

	// One attempt only, despite MaxAttempts allowing five.
	processor.AssertNumberOfCalls(t, "ProcessVoid", 1)
}

// --- Status and stats ---

func TestCompletedJobRetainsResult(t *testing.T) {
	repo := newFakeJobRepo()
	processor := new(MockProcessorService)
	queue := services.NewQueueService(repo, processor, testPolicy(3), 1, 2*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor.On("ProcessTransaction", mock.Anything, mock.Anything).
		Return(&domain.ProcessResult{
			TransactionID: "TXN-C",
			Outcome:       domain.OutcomePointsAwarded,
			MemberID:      "M1",
			NewBalance:    300,
		}, nil).Once()

	jobID, err := queue.EnqueueTransaction(ctx, queueTransaction("TXN-C", "20.00"))
	require.NoError(t, err)

	queue.Start(ctx)
	defer queue.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		stats, err := queue.Stats(context.Background())
		return err == nil && stats.Completed == 1
	}, 2*time.Second, 5*time.Millisecond)

	// The outcome stays readable on the job for the admin surface.
	job, err := queue.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.State)

	var result domain.ProcessResult
	require.NoError(t, json.Unmarshal(job.Result, &result))
	assert.Equal(t, domain.OutcomePointsAwarded, result.Outcome)
	assert.Equal(t, "M1", result.MemberID)
	assert.Equal(t, int64(300), result.NewBalance)
}

func TestStartReclaimsOrphanedActiveJobs(t *testing.T) {
	repo := newFakeJobRepo()
	processor := new(MockProcessorService)
	queue := services.NewQueueService(repo, processor, testPolicy(3), 1, 2*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A job claimed by a previous run that died before settling it.
	payload, err := json.Marshal(domain.TransactionJobPayload{Transaction: queueTransaction("TXN-O", "20.00")})
	require.NoError(t, err)
	orphan := domain.Job{
		JobID:       "orphan-1",
		Type:        domain.JobProcessTransaction,
		Payload:     payload,
		Priority:    domain.PriorityNormal,
		Attempts:    1,
		MaxAttempts: 3,
		State:       domain.JobActive,
		RunAt:       time.Now().Add(-time.Minute),
		UpdatedAt:   time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.Enqueue(ctx, orphan))

	processor.On("ProcessTransaction", mock.Anything, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.TransactionID == "TXN-O"
	})).Return(&domain.ProcessResult{}, nil).Once()

	queue.Start(ctx)
	defer queue.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		job, err := queue.JobStatus(context.Background(), "orphan-1")
		return err == nil && job.State == domain.JobCompleted
	}, 2*time.Second, 5*time.Millisecond)
	processor.AssertExpectations(t)
}

func TestWorkerCancelsHungJob(t *testing.T) {
	repo := newFakeJobRepo()
	processor := new(MockProcessorService)
	queue := services.NewQueueService(repo, processor, testPolicy(1), 1, 2*time.Millisecond, 20*time.Millisecond, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The handler blocks until its context is cut by the job deadline.
	processor.On("ProcessTransaction", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			jobCtx := args.Get(0).(context.Context)
			<-jobCtx.Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()

	jobID, err := queue.EnqueueTransaction(ctx, queueTransaction("TXN-H", "20.00"))
	require.NoError(t, err)

	queue.Start(ctx)
	defer queue.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		job, err := queue.JobStatus(context.Background(), jobID)
		return err == nil && job.State == domain.JobFailed
	}, 2*time.Second, 5*time.Millisecond)

	job, err := queue.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Contains(t, job.LastError, "deadline")
}

func TestStatsCountsByState(t *testing.T) {
	repo := newFakeJobRepo()
	queue := services.NewQueueService(repo, new(MockProcessorService), testPolicy(3), 1, 5*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx := context.Background()

	// Workers never started; everything stays waiting.
	for i := 0; i < 3; i++ {
		_, err := queue.EnqueueTransaction(ctx, queueTransaction(fmt.Sprintf("TXN-%d", i), "20.00"))
		require.NoError(t, err)
	}

	stats, err := queue.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Waiting)
	assert.Equal(t, int64(0), stats.Completed)
	assert.Equal(t, int64(3), stats.Total)
}

func TestShutdownDrainsWorkers(t *testing.T) {
	repo := newFakeJobRepo()
	processor := new(MockProcessorService)
	queue := services.NewQueueService(repo, processor, testPolicy(3), 4, 2*time.Millisecond, time.Minute, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	require.NoError(t, queue.Shutdown(shutdownCtx))
}
