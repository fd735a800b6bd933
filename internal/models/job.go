package models

import (
	"encoding/json"
	"time"
)

// Job is the database row representation of a queued job.
type Job struct {
	JobID       string          `json:"jobID"`    // Primary Key (UUID)
	JobType     string          `json:"jobType"`  // Dispatch key, e.g. process-transaction
	Payload     json.RawMessage `json:"payload"`  // JSONB body handed to the job handler
	Priority    int             `json:"priority"` // Lower dispatches first
	State       string          `json:"state"`    // waiting | active | delayed | completed | failed
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	RunAt       time.Time       `json:"runAt"`  // Not dispatchable before this instant
	Result      json.RawMessage `json:"result"` // JSONB outcome recorded on completion
	LastError   *string         `json:"lastError"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
