package domain

import "github.com/shopspring/decimal"

// PointsCalculation is the points breakdown derived from a transaction amount.
// Pure value, no identity; recomputed on demand and deterministic for the same
// amount so accrual and void-reversal always agree.
type PointsCalculation struct {
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	BasePoints        int64           `json:"pointsAwarded"`
	BonusPoints       int64           `json:"bonusPoints,omitempty"`
	TotalPoints       int64           `json:"totalPoints"`
}
