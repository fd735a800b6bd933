package dto

import (
	"github.com/poslink/loyalty-relay/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculatePointsRequest previews the points a transaction amount would earn.
type CalculatePointsRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RedeemVoucherRequest redeems a member's voucher.
type RedeemVoucherRequest struct {
	MemberID  string `json:"memberId" binding:"required"`
	VoucherID string `json:"voucherId" binding:"required"`
}

// MemberResponse is the member shape returned by the lookup endpoint.
type MemberResponse struct {
	MemberID         string `json:"memberId"`
	MembershipNumber string `json:"membershipNumber"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	Email            string `json:"email,omitempty"`
	PointsBalance    int64  `json:"pointsBalance"`
	Tier             string `json:"tier,omitempty"`
	Status           string `json:"status"`
}

// ToMemberResponse converts a domain member to its response DTO.
func ToMemberResponse(m *domain.LoyaltyMember) MemberResponse {
	return MemberResponse{
		MemberID:         m.MemberID,
		MembershipNumber: m.MembershipNumber,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		PointsBalance:    m.PointsBalance,
		Tier:             m.Tier,
		Status:           string(m.Status),
	}
}
