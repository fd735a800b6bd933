package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/middleware"
	"github.com/shopspring/decimal"
)

type processorSvc struct {
	loyalty    portssvc.LoyaltySvcFacade
	pos        portssvc.POSSvcFacade
	resolver   portssvc.MemberResolverSvc
	calculator *PointsCalculator
	minimum    decimal.Decimal
	syncPace   time.Duration
}

// NewProcessorService creates the transaction processor.
func NewProcessorService(
	loyalty portssvc.LoyaltySvcFacade,
	pos portssvc.POSSvcFacade,
	resolver portssvc.MemberResolverSvc,
	calculator *PointsCalculator,
	minimumTransaction decimal.Decimal,
	syncPace time.Duration,
) portssvc.ProcessorSvcFacade {
	return &processorSvc{
		loyalty:    loyalty,
		pos:        pos,
		resolver:   resolver,
		calculator: calculator,
		minimum:    minimumTransaction,
		syncPace:   syncPace,
	}
}

var _ portssvc.ProcessorSvcFacade = (*processorSvc)(nil)

func (s *processorSvc) CalculatePoints(amount decimal.Decimal) domain.PointsCalculation {
	return s.calculator.Calculate(amount)
}

// ProcessTransaction runs the accrual state machine: eligibility, member
// resolution, points computation, ledger posting, then the best-effort POS
// write-back. Rejections and unmatched customers are recorded outcomes; only
// backend failures return an error, which makes the job retriable.
func (s *processorSvc) ProcessTransaction(ctx context.Context, txn domain.Transaction) (*domain.ProcessResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	result := &domain.ProcessResult{TransactionID: txn.TransactionID}

	if txn.Status != domain.TransactionCompleted {
		result.Outcome = domain.OutcomeRejected
		result.Reason = fmt.Sprintf("transaction status is %s", txn.Status)
		logger.Info("Transaction rejected", slog.String("transaction_id", txn.TransactionID), slog.String("reason", result.Reason))
		return result, nil
	}

	if txn.TotalAmount.LessThan(s.minimum) {
		result.Outcome = domain.OutcomeRejected
		result.Reason = fmt.Sprintf("amount %s is below the %s minimum", txn.TotalAmount.String(), s.minimum.String())
		logger.Info("Transaction rejected", slog.String("transaction_id", txn.TransactionID), slog.String("reason", result.Reason))
		return result, nil
	}

	lookup, err := s.resolveCustomer(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("member resolution failed for transaction %s: %w", txn.TransactionID, err)
	}
	if !lookup.Found {
		result.Outcome = domain.OutcomeMemberNotFound
		result.Reason = "no loyalty member matched the transaction's customer identifiers"
		logger.Info("No member matched", slog.String("transaction_id", txn.TransactionID))
		return result, nil
	}

	member := lookup.Member
	calc := s.calculator.Calculate(txn.TotalAmount)

	posted, err := s.loyalty.AwardPoints(ctx, member.MemberID, calc.TotalPoints, txn.TotalAmount, txn.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("ledger posting failed for transaction %s: %w", txn.TransactionID, err)
	}

	result.Outcome = domain.OutcomePointsAwarded
	result.MemberID = member.MemberID
	result.Points = &calc
	result.NewBalance = posted.NewBalance
	result.WriteBack = s.writeBackLoyaltyNumber(ctx, txn, member)

	logger.Info("Transaction relayed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("member_id", member.MemberID),
		slog.Int64("points", calc.TotalPoints),
		slog.Int64("new_balance", posted.NewBalance))

	return result, nil
}

// resolveCustomer tries the transaction's own identifiers first (phone, then
// email), then falls back to the POS customer record: its loyalty number if
// already enrolled, otherwise its contact details.
func (s *processorSvc) resolveCustomer(ctx context.Context, txn domain.Transaction) (*domain.MemberLookupResult, error) {
	if txn.CustomerPhone != "" {
		lookup, err := s.resolver.Resolve(ctx, txn.CustomerPhone, domain.IdentifierPhone)
		if err != nil && !errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		if err == nil && lookup.Found {
			return lookup, nil
		}
	}

	if txn.CustomerEmail != "" {
		lookup, err := s.resolver.Resolve(ctx, txn.CustomerEmail, domain.IdentifierEmail)
		if err != nil && !errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		if err == nil && lookup.Found {
			return lookup, nil
		}
	}

	if txn.CustomerID != "" {
		customer, err := s.pos.GetCustomer(ctx, txn.CustomerID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return &domain.MemberLookupResult{Found: false}, nil
			}
			return nil, err
		}

		var identifier string
		var kind domain.IdentifierKind
		switch {
		case customer.LoyaltyNumber != "":
			identifier, kind = customer.LoyaltyNumber, domain.IdentifierNumber
		case customer.Phone != "":
			identifier, kind = customer.Phone, domain.IdentifierPhone
		case customer.Email != "":
			identifier, kind = customer.Email, domain.IdentifierEmail
		default:
			return &domain.MemberLookupResult{Found: false}, nil
		}

		lookup, err := s.resolver.Resolve(ctx, identifier, kind)
		if errors.Is(err, apperrors.ErrValidation) {
			// Junk contact details on the POS record are a miss, not a failure.
			return &domain.MemberLookupResult{Found: false}, nil
		}
		return lookup, err
	}

	return &domain.MemberLookupResult{Found: false}, nil
}

// writeBackLoyaltyNumber stamps the matched membership number onto the POS
// customer record. Failures are recorded, logged, and swallowed; points were
// already awarded and a write-back miss must never fail the job.
func (s *processorSvc) writeBackLoyaltyNumber(ctx context.Context, txn domain.Transaction, member *domain.LoyaltyMember) domain.SecondaryOutcome {
	if txn.CustomerID == "" || member.MembershipNumber == "" {
		return domain.SecondaryOutcome{Attempted: false}
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	if err := s.pos.UpdateCustomerLoyaltyNumber(ctx, txn.CustomerID, member.MembershipNumber); err != nil {
		logger.Warn("Loyalty number write-back failed",
			slog.String("customer_id", txn.CustomerID),
			slog.String("membership_number", member.MembershipNumber),
			slog.String("error", err.Error()))
		return domain.SecondaryOutcome{Attempted: true, Succeeded: false, Detail: err.Error()}
	}
	return domain.SecondaryOutcome{Attempted: true, Succeeded: true}
}

// ProcessVoid reverses a relayed transaction. The points to reverse are
// recomputed from the amount with the same calculator that awarded them, and
// the debit references VOID-<transactionId> so both ledger movements of a
// transaction are linkable. A void whose customer matches no member is a
// no-op.
func (s *processorSvc) ProcessVoid(ctx context.Context, txn domain.Transaction) (*domain.VoidResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	result := &domain.VoidResult{TransactionID: txn.TransactionID}

	var lookup *domain.MemberLookupResult
	var err error
	switch {
	case txn.CustomerPhone != "":
		lookup, err = s.resolver.Resolve(ctx, txn.CustomerPhone, domain.IdentifierPhone)
	case txn.CustomerEmail != "":
		lookup, err = s.resolver.Resolve(ctx, txn.CustomerEmail, domain.IdentifierEmail)
	default:
		result.Reason = "void carries no customer identifiers"
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("member resolution failed for void of %s: %w", txn.TransactionID, err)
	}
	if !lookup.Found {
		result.Reason = "no loyalty member matched the void's customer identifiers"
		logger.Info("Void is a no-op, no member matched", slog.String("transaction_id", txn.TransactionID))
		return result, nil
	}

	calc := s.calculator.Calculate(txn.TotalAmount)
	voidRef := "VOID-" + txn.TransactionID

	if _, err := s.loyalty.RedeemPoints(ctx, lookup.Member.MemberID, calc.TotalPoints, voidRef); err != nil {
		return nil, fmt.Errorf("reversal posting failed for void of %s: %w", txn.TransactionID, err)
	}

	result.Reversed = true
	result.PointsReversed = calc.TotalPoints

	logger.Info("Transaction voided",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("member_id", lookup.Member.MemberID),
		slog.Int64("points_reversed", calc.TotalPoints))

	return result, nil
}

// SyncHistorical replays the store's completed transactions in [start, end]
// through the accrual path, one at a time with a pacing delay so the backfill
// never saturates the loyalty backend. A failed item is tallied and skipped;
// the sweep continues.
func (s *processorSvc) SyncHistorical(ctx context.Context, start, end time.Time) (*domain.SyncResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	transactions, err := s.pos.GetTransactionsByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical transactions: %w", err)
	}

	result := &domain.SyncResult{Total: len(transactions)}
	logger.Info("Historical sync started",
		slog.Time("start", start),
		slog.Time("end", end),
		slog.Int("total", result.Total))

	for i, txn := range transactions {
		if i > 0 && s.syncPace > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.syncPace):
			}
		}

		if _, err := s.ProcessTransaction(ctx, txn); err != nil {
			result.Failed++
			logger.Warn("Historical transaction failed",
				slog.String("transaction_id", txn.TransactionID),
				slog.String("error", err.Error()))
			continue
		}
		result.Processed++
	}

	logger.Info("Historical sync finished",
		slog.Int("total", result.Total),
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed))

	return result, nil
}
