package domain

// ProcessOutcome is the terminal state of a processed transaction.
type ProcessOutcome string

const (
	OutcomeRejected       ProcessOutcome = "rejected"
	OutcomeMemberNotFound ProcessOutcome = "member-not-found"
	OutcomePointsAwarded  ProcessOutcome = "points-awarded"
)

// SecondaryOutcome records a best-effort side effect (the POS loyalty-number
// write-back). It is always logged but never escalates to a job failure.
type SecondaryOutcome struct {
	Attempted bool   `json:"attempted"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
}

// ProcessResult is the recorded outcome of an accrual job.
type ProcessResult struct {
	TransactionID string             `json:"transactionId"`
	Outcome       ProcessOutcome     `json:"outcome"`
	Reason        string             `json:"reason,omitempty"`
	MemberID      string             `json:"memberId,omitempty"`
	Points        *PointsCalculation `json:"points,omitempty"`
	NewBalance    int64              `json:"newBalance,omitempty"`
	WriteBack     SecondaryOutcome   `json:"writeBack"`
}

// VoidResult is the recorded outcome of a void-reversal job. A void that finds
// no member is a no-op (Reversed=false), not an error.
type VoidResult struct {
	TransactionID  string `json:"transactionId"`
	Reversed       bool   `json:"reversed"`
	PointsReversed int64  `json:"pointsReversed,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// SyncResult tallies a historical backfill run.
type SyncResult struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}
