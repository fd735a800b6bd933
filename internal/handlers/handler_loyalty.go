package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/dto"
	"github.com/poslink/loyalty-relay/internal/middleware"
	"github.com/gin-gonic/gin"
)

// loyaltyHandler exposes the synchronous loyalty lookups used by in-store
// tooling: member search, vouchers, and a points preview.
type loyaltyHandler struct {
	loyalty   portssvc.LoyaltySvcFacade
	resolver  portssvc.MemberResolverSvc
	processor portssvc.ProcessorSvcFacade
}

func newLoyaltyHandler(loyalty portssvc.LoyaltySvcFacade, resolver portssvc.MemberResolverSvc, processor portssvc.ProcessorSvcFacade) *loyaltyHandler {
	return &loyaltyHandler{loyalty: loyalty, resolver: resolver, processor: processor}
}

// lookupMember finds a member by phone, email, or membership number, passed as
// a query parameter. Exactly one identifier is expected; they are tried in
// that order.
func (h *loyaltyHandler) lookupMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var identifier string
	var kind domain.IdentifierKind
	switch {
	case c.Query("phone") != "":
		identifier, kind = c.Query("phone"), domain.IdentifierPhone
	case c.Query("email") != "":
		identifier, kind = c.Query("email"), domain.IdentifierEmail
	case c.Query("number") != "":
		identifier, kind = c.Query("number"), domain.IdentifierNumber
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "One of phone, email, or number is required"})
		return
	}

	lookup, err := h.resolver.Resolve(c.Request.Context(), identifier, kind)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Member lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Loyalty backend is unavailable"})
		return
	}
	if !lookup.Found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No member matched"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberResponse(lookup.Member))
}

// listVouchers returns the member's currently redeemable vouchers.
func (h *loyaltyHandler) listVouchers(c *gin.Context) {
	memberID := c.Param("memberID")

	vouchers, err := h.loyalty.ListAvailableVouchers(c.Request.Context(), memberID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Voucher listing failed", slog.String("member_id", memberID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Loyalty backend is unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}

// redeemVoucher marks one of the member's available vouchers redeemed. The
// voucher must be listed as available for that member; redeeming someone
// else's voucher is a 404, not a backend call.
func (h *loyaltyHandler) redeemVoucher(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RedeemVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": bindingErrorDetails(err)})
		return
	}

	available, err := h.loyalty.ListAvailableVouchers(c.Request.Context(), req.MemberID)
	if err != nil {
		logger.Error("Voucher listing failed before redemption", slog.String("member_id", req.MemberID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Loyalty backend is unavailable"})
		return
	}

	eligible := false
	for _, v := range available {
		if v.VoucherID == req.VoucherID {
			eligible = true
			break
		}
	}
	if !eligible {
		c.JSON(http.StatusNotFound, gin.H{"error": "Voucher is not available for this member"})
		return
	}

	if err := h.loyalty.RedeemVoucher(c.Request.Context(), req.VoucherID); err != nil {
		logger.Error("Voucher redemption failed", slog.String("voucher_id", req.VoucherID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Loyalty backend is unavailable"})
		return
	}

	logger.Info("Voucher redeemed", slog.String("voucher_id", req.VoucherID), slog.String("member_id", req.MemberID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// calculatePoints previews the points an amount would earn, without posting
// anything.
func (h *loyaltyHandler) calculatePoints(c *gin.Context) {
	var req dto.CalculatePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": bindingErrorDetails(err)})
		return
	}
	if req.Amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must not be negative"})
		return
	}

	c.JSON(http.StatusOK, h.processor.CalculatePoints(req.Amount))
}
