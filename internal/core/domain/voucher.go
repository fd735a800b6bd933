package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherStatus is the lifecycle state of a voucher in the loyalty backend.
type VoucherStatus string

const (
	VoucherIssued   VoucherStatus = "Issued"
	VoucherRedeemed VoucherStatus = "Redeemed"
	VoucherExpired  VoucherStatus = "Expired"
)

// Voucher is a redeemable benefit issued to a loyalty member.
type Voucher struct {
	VoucherID       string          `json:"voucherId"`
	Code            string          `json:"voucherCode"`
	MemberID        string          `json:"memberId"`
	Status          VoucherStatus   `json:"status"`
	Type            string          `json:"type,omitempty"`
	FaceValue       decimal.Decimal `json:"faceValue,omitempty"`
	DiscountPercent decimal.Decimal `json:"discountPercent,omitempty"`
	EffectiveDate   time.Time       `json:"effectiveDate"`
	ExpirationDate  *time.Time      `json:"expirationDate,omitempty"`
}
