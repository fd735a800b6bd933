package services

import (
	"context"

	"github.com/poslink/loyalty-relay/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MemberReaderSvc defines read operations against the loyalty backend's member
// and ledger records.
type MemberReaderSvc interface {
	// LookupMemberByPhone finds the first active member whose phone matches the
	// given digits-only phone number. A miss is (Found=false, nil error).
	LookupMemberByPhone(ctx context.Context, phone string) (*domain.MemberLookupResult, error)

	// LookupMemberByEmail finds the first active member with the given email.
	LookupMemberByEmail(ctx context.Context, email string) (*domain.MemberLookupResult, error)

	// LookupMemberByNumber finds the active member with the given membership number.
	LookupMemberByNumber(ctx context.Context, membershipNumber string) (*domain.MemberLookupResult, error)

	// GetMemberPointsBalance sums the member's non-expired ledger entries.
	// Read-time aggregation; never a cached counter.
	GetMemberPointsBalance(ctx context.Context, memberID string) (int64, error)
}

// LedgerPosterSvc defines the append-only ledger write operations.
type LedgerPosterSvc interface {
	// AwardPoints creates an Accrual journal and a Credit ledger line referencing
	// it, then re-reads the balance.
	AwardPoints(ctx context.Context, memberID string, points int64, amount decimal.Decimal, externalRef string) (*domain.PostResult, error)

	// RedeemPoints re-reads the balance first and fails with
	// apperrors.ErrInsufficientBalance without posting anything when the balance
	// is short; otherwise posts a Redemption journal and a Debit ledger line.
	RedeemPoints(ctx context.Context, memberID string, points int64, externalRef string) (*domain.PostResult, error)
}

// VoucherSvc defines voucher list/redeem operations.
type VoucherSvc interface {
	// ListAvailableVouchers returns the member's issued, effective, unexpired vouchers.
	ListAvailableVouchers(ctx context.Context, memberID string) ([]domain.Voucher, error)

	// RedeemVoucher marks a voucher redeemed.
	RedeemVoucher(ctx context.Context, voucherID string) error
}

// LoyaltySvcFacade combines all loyalty backend operations.
type LoyaltySvcFacade interface {
	MemberReaderSvc
	LedgerPosterSvc
	VoucherSvc
}
