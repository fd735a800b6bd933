package services

import (
	"context"
	"time"

	"github.com/poslink/loyalty-relay/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MemberResolverSvc resolves a loyalty member from a customer identifier.
type MemberResolverSvc interface {
	// Resolve normalizes the identifier (phone lookups go digits-only) and
	// dispatches to the matching loyalty backend query. At most one match is
	// returned; no match is (Found=false, nil error).
	Resolve(ctx context.Context, identifier string, kind domain.IdentifierKind) (*domain.MemberLookupResult, error)
}

// ProcessorSvcFacade orchestrates the transaction relay: eligibility checks,
// member resolution, points computation, ledger posting, and the best-effort
// POS write-back.
type ProcessorSvcFacade interface {
	// CalculatePoints derives the points breakdown for an amount. Pure; called
	// identically during accrual and void-reversal.
	CalculatePoints(amount decimal.Decimal) domain.PointsCalculation

	// ProcessTransaction runs the accrual state machine. Rejections and
	// member-not-found are recorded outcomes, not errors; an error return means
	// a retriable external failure.
	ProcessTransaction(ctx context.Context, txn domain.Transaction) (*domain.ProcessResult, error)

	// ProcessVoid reverses a previously relayed transaction by recomputing its
	// points total and posting an offsetting Debit referencing
	// VOID-<transactionId>. No member resolved is a no-op.
	ProcessVoid(ctx context.Context, txn domain.Transaction) (*domain.VoidResult, error)

	// SyncHistorical replays POS transactions in the inclusive date range
	// through ProcessTransaction sequentially, pacing between items.
	SyncHistorical(ctx context.Context, start, end time.Time) (*domain.SyncResult, error)
}
