package services

import (
	"github.com/poslink/loyalty-relay/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Bonus thresholds; a transaction earns at most one bonus, the largest it
// qualifies for.
var (
	bonusThresholdHigh = decimal.NewFromInt(50)
	bonusThresholdLow  = decimal.NewFromInt(25)
)

const (
	bonusPointsHigh int64 = 50
	bonusPointsLow  int64 = 25
)

// PointsCalculator derives points from transaction amounts. It is pure: the
// same amount always yields the same breakdown, which is what lets a void
// recompute the exact number of points to reverse.
type PointsCalculator struct {
	pointsPerDollar decimal.Decimal
}

// NewPointsCalculator creates a calculator with the given earn rate.
func NewPointsCalculator(pointsPerDollar int64) *PointsCalculator {
	return &PointsCalculator{pointsPerDollar: decimal.NewFromInt(pointsPerDollar)}
}

// Calculate computes base points (amount times rate, floored to a whole
// number) plus the single largest qualifying bonus.
func (c *PointsCalculator) Calculate(amount decimal.Decimal) domain.PointsCalculation {
	base := amount.Mul(c.pointsPerDollar).Floor().IntPart()

	var bonus int64
	switch {
	case amount.GreaterThanOrEqual(bonusThresholdHigh):
		bonus = bonusPointsHigh
	case amount.GreaterThanOrEqual(bonusThresholdLow):
		bonus = bonusPointsLow
	}

	return domain.PointsCalculation{
		TransactionAmount: amount,
		BasePoints:        base,
		BonusPoints:       bonus,
		TotalPoints:       base + bonus,
	}
}
