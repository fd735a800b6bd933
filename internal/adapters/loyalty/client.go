// Package loyalty is the REST adapter for the loyalty backend, treated as a
// generic record store with query-by-field and create/update operations over
// members, journals, ledger lines, and vouchers.
package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client talks to the loyalty backend's record API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	programID  string
}

// Ensure Client implements the loyalty facade.
var _ portssvc.LoyaltySvcFacade = (*Client)(nil)

// NewClient creates a loyalty backend client.
func NewClient(baseURL, apiKey, programID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		programID:  programID,
	}
}

type memberRecord struct {
	MemberID         string `json:"memberId"`
	MembershipNumber string `json:"membershipNumber"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Tier             string `json:"tier"`
	Status           string `json:"status"`
}

type memberQueryResponse struct {
	Records []memberRecord `json:"records"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type createResponse struct {
	ID string `json:"id"`
}

type voucherQueryResponse struct {
	Records []domain.Voucher `json:"records"`
}

// LookupMemberByPhone finds the first active member matching the digits-only
// phone number. A miss is (Found=false, nil error); only transport or backend
// failures return an error.
func (c *Client) LookupMemberByPhone(ctx context.Context, phone string) (*domain.MemberLookupResult, error) {
	return c.lookupMember(ctx, url.Values{"phone": {phone}})
}

// LookupMemberByEmail finds the first active member with the given email.
func (c *Client) LookupMemberByEmail(ctx context.Context, email string) (*domain.MemberLookupResult, error) {
	return c.lookupMember(ctx, url.Values{"email": {email}})
}

// LookupMemberByNumber finds the active member with the given membership number.
func (c *Client) LookupMemberByNumber(ctx context.Context, membershipNumber string) (*domain.MemberLookupResult, error) {
	return c.lookupMember(ctx, url.Values{"membershipNumber": {membershipNumber}})
}

func (c *Client) lookupMember(ctx context.Context, query url.Values) (*domain.MemberLookupResult, error) {
	query.Set("status", string(domain.MemberActive))
	query.Set("limit", "1")
	if c.programID != "" {
		query.Set("programId", c.programID)
	}

	var resp memberQueryResponse
	if err := c.do(ctx, http.MethodGet, "/members", query, nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Records) == 0 {
		return &domain.MemberLookupResult{Found: false}, nil
	}

	rec := resp.Records[0]
	balance, err := c.GetMemberPointsBalance(ctx, rec.MemberID)
	if err != nil {
		return nil, err
	}

	return &domain.MemberLookupResult{
		Found: true,
		Member: &domain.LoyaltyMember{
			MemberID:         rec.MemberID,
			MembershipNumber: rec.MembershipNumber,
			FirstName:        rec.FirstName,
			LastName:         rec.LastName,
			Email:            rec.Email,
			PointsBalance:    balance,
			Tier:             rec.Tier,
			Status:           domain.MemberStatus(rec.Status),
		},
	}, nil
}

// GetMemberPointsBalance sums the member's non-expired ledger entries on the
// backend. Read-time aggregation keeps the balance consistent with ledger
// state without separate reconciliation.
func (c *Client) GetMemberPointsBalance(ctx context.Context, memberID string) (int64, error) {
	query := url.Values{"memberId": {memberID}, "excludeExpired": {"true"}}
	var resp balanceResponse
	if err := c.do(ctx, http.MethodGet, "/ledger/balance", query, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// AwardPoints creates an Accrual journal and a Credit ledger line referencing
// it, then re-reads the member's balance. The two writes are sequential; a
// ledger-line failure after the journal write leaves the journal orphaned,
// which is surfaced through logs rather than rolled back (the backend has no
// cross-object transactions).
func (c *Client) AwardPoints(ctx context.Context, memberID string, points int64, amount decimal.Decimal, externalRef string) (*domain.PostResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	activityDate := time.Now().UTC()

	journal := domain.TransactionJournal{
		JournalID:                 uuid.NewString(),
		JournalType:               domain.Accrual,
		MemberID:                  memberID,
		TransactionAmount:         amount,
		Status:                    "Processed",
		ExternalTransactionNumber: externalRef,
		ActivityDate:              activityDate,
	}

	var journalResp createResponse
	if err := c.do(ctx, http.MethodPost, "/journals", nil, journal, &journalResp); err != nil {
		return nil, fmt.Errorf("failed to create accrual journal: %w", err)
	}

	entry := domain.LedgerEntry{
		EntryID:      uuid.NewString(),
		MemberID:     memberID,
		JournalID:    journalResp.ID,
		EventType:    domain.Credit,
		Points:       points,
		ActivityDate: activityDate,
	}

	if err := c.do(ctx, http.MethodPost, "/ledger", nil, entry, nil); err != nil {
		logger.Error("Ledger line failed after journal write; journal left orphaned",
			slog.String("journal_id", journalResp.ID),
			slog.String("member_id", memberID),
			slog.String("external_ref", externalRef),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create credit ledger line: %w", err)
	}

	newBalance, err := c.GetMemberPointsBalance(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read balance after award: %w", err)
	}

	logger.Info("Points awarded",
		slog.String("member_id", memberID),
		slog.Int64("points", points),
		slog.String("external_ref", externalRef),
		slog.Int64("new_balance", newBalance))

	return &domain.PostResult{JournalID: journalResp.ID, Points: points, NewBalance: newBalance}, nil
}

// RedeemPoints re-reads the current balance first and refuses the debit with
// apperrors.ErrInsufficientBalance when the balance is short, posting nothing.
// Otherwise posts a Redemption journal and a Debit ledger line and re-reads
// the balance.
func (c *Client) RedeemPoints(ctx context.Context, memberID string, points int64, externalRef string) (*domain.PostResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	currentBalance, err := c.GetMemberPointsBalance(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance before redemption: %w", err)
	}
	if currentBalance < points {
		return nil, fmt.Errorf("%w: balance %d, requested %d", apperrors.ErrInsufficientBalance, currentBalance, points)
	}

	activityDate := time.Now().UTC()

	journal := domain.TransactionJournal{
		JournalID:                 uuid.NewString(),
		JournalType:               domain.Redemption,
		MemberID:                  memberID,
		Status:                    "Processed",
		ExternalTransactionNumber: externalRef,
		ActivityDate:              activityDate,
	}

	var journalResp createResponse
	if err := c.do(ctx, http.MethodPost, "/journals", nil, journal, &journalResp); err != nil {
		return nil, fmt.Errorf("failed to create redemption journal: %w", err)
	}

	entry := domain.LedgerEntry{
		EntryID:      uuid.NewString(),
		MemberID:     memberID,
		JournalID:    journalResp.ID,
		EventType:    domain.Debit,
		Points:       -points,
		ActivityDate: activityDate,
	}

	if err := c.do(ctx, http.MethodPost, "/ledger", nil, entry, nil); err != nil {
		logger.Error("Ledger line failed after journal write; journal left orphaned",
			slog.String("journal_id", journalResp.ID),
			slog.String("member_id", memberID),
			slog.String("external_ref", externalRef),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create debit ledger line: %w", err)
	}

	newBalance, err := c.GetMemberPointsBalance(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read balance after redemption: %w", err)
	}

	logger.Info("Points redeemed",
		slog.String("member_id", memberID),
		slog.Int64("points", points),
		slog.String("external_ref", externalRef),
		slog.Int64("new_balance", newBalance))

	return &domain.PostResult{JournalID: journalResp.ID, Points: points, NewBalance: newBalance}, nil
}

// ListAvailableVouchers returns the member's issued vouchers that are effective
// now and not yet expired.
func (c *Client) ListAvailableVouchers(ctx context.Context, memberID string) ([]domain.Voucher, error) {
	query := url.Values{"memberId": {memberID}, "status": {string(domain.VoucherIssued)}}
	var resp voucherQueryResponse
	if err := c.do(ctx, http.MethodGet, "/vouchers", query, nil, &resp); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	available := make([]domain.Voucher, 0, len(resp.Records))
	for _, v := range resp.Records {
		if v.EffectiveDate.After(now) {
			continue
		}
		if v.ExpirationDate != nil && v.ExpirationDate.Before(now) {
			continue
		}
		available = append(available, v)
	}
	return available, nil
}

// RedeemVoucher marks a voucher redeemed.
func (c *Client) RedeemVoucher(ctx context.Context, voucherID string) error {
	body := map[string]string{"status": string(domain.VoucherRedeemed)}
	return c.do(ctx, http.MethodPatch, "/vouchers/"+voucherID, nil, body, nil)
}

// do performs a request against the loyalty backend, mapping transport errors
// and 5xx/4xx responses onto the app error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request body: %v", apperrors.ErrInternal, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %v", apperrors.ErrInternal, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: loyalty backend unreachable: %v", apperrors.ErrExternalService, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: loyalty backend returned %d: %s", apperrors.ErrExternalService, resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: failed to decode loyalty response: %v", apperrors.ErrExternalService, err)
		}
	}
	return nil
}
