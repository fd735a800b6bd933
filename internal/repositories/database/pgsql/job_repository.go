package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portsrepo "github.com/poslink/loyalty-relay/internal/core/ports/repositories"
	"github.com/poslink/loyalty-relay/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxJobRepository struct {
	BaseRepository
}

// NewPgxJobRepository creates the Postgres-backed job store.
func NewPgxJobRepository(db *pgxpool.Pool) portsrepo.JobRepositoryFacade {
	return &PgxJobRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxJobRepository implements portsrepo.JobRepositoryFacade
var _ portsrepo.JobRepositoryFacade = (*PgxJobRepository)(nil)

// Helper to convert domain.Job to models.Job
func toModelJob(d domain.Job) models.Job {
	var lastError *string
	if d.LastError != "" {
		lastError = &d.LastError
	}
	return models.Job{
		JobID:       d.JobID,
		JobType:     string(d.Type),
		Payload:     d.Payload,
		Priority:    d.Priority,
		State:       string(d.State),
		Attempts:    d.Attempts,
		MaxAttempts: d.MaxAttempts,
		RunAt:       d.RunAt,
		Result:      d.Result,
		LastError:   lastError,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Helper to convert models.Job to domain.Job
func toDomainJob(m models.Job) domain.Job {
	lastError := ""
	if m.LastError != nil {
		lastError = *m.LastError
	}
	return domain.Job{
		JobID:       m.JobID,
		Type:        domain.JobType(m.JobType),
		Payload:     m.Payload,
		Priority:    m.Priority,
		State:       domain.JobState(m.State),
		Attempts:    m.Attempts,
		MaxAttempts: m.MaxAttempts,
		RunAt:       m.RunAt,
		Result:      m.Result,
		LastError:   lastError,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

const jobColumns = `job_id, job_type, payload, priority, state, attempts, max_attempts, run_at, result, last_error, created_at, updated_at`

func scanJob(row pgx.Row) (models.Job, error) {
	var m models.Job
	err := row.Scan(
		&m.JobID,
		&m.JobType,
		&m.Payload,
		&m.Priority,
		&m.State,
		&m.Attempts,
		&m.MaxAttempts,
		&m.RunAt,
		&m.Result,
		&m.LastError,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func (r *PgxJobRepository) Enqueue(ctx context.Context, job domain.Job) error {
	m := toModelJob(job)
	query := `
        INSERT INTO jobs (job_id, job_type, payload, priority, state, attempts, max_attempts, run_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
    `
	_, err := r.Pool.Exec(ctx, query,
		m.JobID,
		m.JobType,
		m.Payload,
		m.Priority,
		m.State,
		m.Attempts,
		m.MaxAttempts,
		m.RunAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.JobID, err)
	}
	return nil
}

// DequeueNext claims the next dispatchable job. SKIP LOCKED lets concurrent
// workers poll the same table without handing out the same row twice; the
// claim and the attempt increment are a single statement.
func (r *PgxJobRepository) DequeueNext(ctx context.Context) (*domain.Job, error) {
	query := `
        UPDATE jobs
        SET state = 'active', attempts = attempts + 1, updated_at = now()
        WHERE job_id = (
            SELECT job_id FROM jobs
            WHERE state IN ('waiting', 'delayed') AND run_at <= now()
            ORDER BY priority ASC, created_at ASC
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING ` + jobColumns + `;
    `
	m, err := scanJob(r.Pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // nothing ready
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	d := toDomainJob(m)
	return &d, nil
}

// completedRetention bounds how many completed jobs stay queryable on the
// admin surface before pruning.
const completedRetention = 100

// MarkCompleted records the handler's result and retains the row in the
// completed state, pruning completed rows beyond the retention window.
func (r *PgxJobRepository) MarkCompleted(ctx context.Context, jobID string, result json.RawMessage) error {
	query := `
        UPDATE jobs
        SET state = 'completed', result = $2, updated_at = now()
        WHERE job_id = $1;
    `
	tag, err := r.Pool.Exec(ctx, query, jobID, result)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	prune := `
        DELETE FROM jobs
        WHERE state = 'completed' AND job_id NOT IN (
            SELECT job_id FROM jobs
            WHERE state = 'completed'
            ORDER BY updated_at DESC
            LIMIT $1
        );
    `
	if _, err := r.Pool.Exec(ctx, prune, completedRetention); err != nil {
		return fmt.Errorf("failed to prune completed jobs: %w", err)
	}
	return nil
}

func (r *PgxJobRepository) Reschedule(ctx context.Context, jobID string, runAt time.Time, lastError string) error {
	query := `
        UPDATE jobs
        SET state = 'delayed', run_at = $2, last_error = $3, updated_at = now()
        WHERE job_id = $1;
    `
	tag, err := r.Pool.Exec(ctx, query, jobID, runAt, lastError)
	if err != nil {
		return fmt.Errorf("failed to reschedule job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkFailed retains the row in the failed state so operators can inspect it.
func (r *PgxJobRepository) MarkFailed(ctx context.Context, jobID string, lastError string) error {
	query := `
        UPDATE jobs
        SET state = 'failed', last_error = $2, updated_at = now()
        WHERE job_id = $1;
    `
	tag, err := r.Pool.Exec(ctx, query, jobID, lastError)
	if err != nil {
		return fmt.Errorf("failed to mark job %s failed: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ReclaimStale returns active rows untouched since the cutoff to the waiting
// state. A worker that crashed mid-job leaves its claim in active; nothing else
// moves a row out of that state.
func (r *PgxJobRepository) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	query := `
        UPDATE jobs
        SET state = 'waiting', updated_at = now()
        WHERE state = 'active' AND updated_at < $1;
    `
	tag, err := r.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxJobRepository) FindJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1;`
	m, err := scanJob(r.Pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find job %s: %w", jobID, err)
	}
	d := toDomainJob(m)
	return &d, nil
}

func (r *PgxJobRepository) CountByState(ctx context.Context) (map[domain.JobState]int64, error) {
	rows, err := r.Pool.Query(ctx, `SELECT state, count(*) FROM jobs GROUP BY state;`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.JobState]int64)
	for rows.Next() {
		var state string
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count row: %w", err)
		}
		counts[domain.JobState(state)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading job count rows: %w", err)
	}
	return counts, nil
}
