// Package pos is the REST adapter for the point-of-sale backend. The relay
// reads transactions and customers from it, and writes a customer's loyalty
// number back after a successful enrollment match.
package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/poslink/loyalty-relay/internal/apperrors"
	"github.com/poslink/loyalty-relay/internal/core/domain"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
)

// Client talks to the POS backend's API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	storeID    string
}

// Ensure Client implements the POS facade.
var _ portssvc.POSSvcFacade = (*Client)(nil)

// NewClient creates a POS backend client scoped to a single store.
func NewClient(baseURL, apiKey, storeID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		storeID:    storeID,
	}
}

type transactionListResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// GetTransaction fetches a single transaction by ID.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := url.Values{"storeId": {c.storeID}}
	var txn domain.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/"+transactionID, query, nil, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetTransactionsByDateRange fetches completed transactions for the store in
// [start, end]. Dates are sent as YYYY-MM-DD; the backend interprets them in
// store-local time.
func (c *Client) GetTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	query := url.Values{
		"storeId":   {c.storeID},
		"startDate": {start.Format("2006-01-02")},
		"endDate":   {end.Format("2006-01-02")},
		"status":    {string(domain.TransactionCompleted)},
	}
	var resp transactionListResponse
	if err := c.do(ctx, http.MethodGet, "/transactions", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// GetCustomer fetches a POS customer record by ID.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	var customer domain.Customer
	if err := c.do(ctx, http.MethodGet, "/customers/"+customerID, nil, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomerLoyaltyNumber writes the matched membership number onto the
// POS customer record so future transactions carry it directly.
func (c *Client) UpdateCustomerLoyaltyNumber(ctx context.Context, customerID, loyaltyNumber string) error {
	body := map[string]string{"loyaltyNumber": loyaltyNumber}
	return c.do(ctx, http.MethodPatch, "/customers/"+customerID, nil, body, nil)
}

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
		return fmt.Errorf("%w: POS backend unreachable: %v", apperrors.ErrExternalService, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: POS backend returned %d: %s", apperrors.ErrExternalService, resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: failed to decode POS response: %v", apperrors.ErrExternalService, err)
		}
	}
	return nil
}
