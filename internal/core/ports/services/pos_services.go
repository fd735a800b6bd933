package services

import (
	"context"
	"time"

	"github.com/poslink/loyalty-relay/internal/core/domain"
)

// POSSvcFacade defines the operations consumed from the POS backend.
type POSSvcFacade interface {
	// GetTransaction fetches a single transaction. Returns apperrors.ErrNotFound
	// when the POS has no such transaction.
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// GetTransactionsByDateRange fetches completed transactions in the inclusive
	// date range, for historical backfill.
	GetTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Transaction, error)

	// GetCustomer fetches a POS customer record. Returns apperrors.ErrNotFound
	// when absent.
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)

	// UpdateCustomerLoyaltyNumber writes the member's membership number back onto
	// the POS customer record. Best-effort from the processor's perspective.
	UpdateCustomerLoyaltyNumber(ctx context.Context, customerID, loyaltyNumber string) error
}
