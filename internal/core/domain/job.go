package domain

import (
	"encoding/json"
	"time"
)

// JobType identifies which handler a queued job is dispatched to.
type JobType string

const (
	JobProcessTransaction JobType = "process-transaction"
	JobVoidTransaction    JobType = "void-transaction"
	JobHistoricalSync     JobType = "historical-sync"
)

// JobState is the lifecycle state of a queued job. Transitions only move
// forward (waiting -> active -> completed|failed), except that a retried job
// returns to delayed until its backoff elapses.
type JobState string

const (
	JobWaiting   JobState = "waiting"
	JobActive    JobState = "active"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobDelayed   JobState = "delayed"
)

// Job priorities; lower value dispatches first.
const (
	PriorityHigh   = 1
	PriorityNormal = 5
	PriorityBulk   = 10
)

// Job is a unit of queued work backed by the durable queue store.
type Job struct {
	JobID       string          `json:"jobId"`
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Priority    int             `json:"priority"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	State       JobState        `json:"state"`
	RunAt       time.Time       `json:"runAt"`
	Result      json.RawMessage `json:"result,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TransactionJobPayload is the payload for process-transaction and
// void-transaction jobs.
type TransactionJobPayload struct {
	Transaction Transaction `json:"transaction"`
}

// HistoricalSyncJobPayload is the payload for historical-sync jobs.
// Dates are inclusive, formatted as 2006-01-02.
type HistoricalSyncJobPayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// QueueStats summarises job counts by state for the admin surface.
type QueueStats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Delayed   int64 `json:"delayed"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Total     int64 `json:"total"`
}
