package dto

import (
	"time"

	"github.com/poslink/loyalty-relay/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Webhook event types pushed by the POS.
const (
	EventTransactionCompleted = "transaction.completed"
	EventTransactionVoided    = "transaction.voided"
	EventTransactionRefunded  = "transaction.refunded"
)

// TransactionEventRequest is the envelope the POS posts to the webhook.
type TransactionEventRequest struct {
	EventType string             `json:"eventType" binding:"required,oneof=transaction.completed transaction.voided transaction.refunded"`
	EventID   string             `json:"eventId" binding:"required"`
	Timestamp time.Time          `json:"timestamp"`
	Data      TransactionPayload `json:"data" binding:"required"`
}

// TransactionPayload is the transaction body inside a webhook event. Only the
// transaction ID is unconditionally required; void events may carry nothing
// else and the relay fetches the rest from the POS. TotalAmount is a pointer
// so an absent amount is distinguishable from a genuine zero.
type TransactionPayload struct {
	TransactionID string            `json:"transactionId" binding:"required"`
	StoreID       string            `json:"storeId"`
	TerminalID    string            `json:"terminalId"`
	Timestamp     time.Time         `json:"timestamp"`
	CustomerID    string            `json:"customerId"`
	CustomerPhone string            `json:"customerPhone"`
	CustomerEmail string            `json:"customerEmail"`
	TotalAmount   *decimal.Decimal  `json:"totalAmount"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	Tip           decimal.Decimal   `json:"tip"`
	Discount      decimal.Decimal   `json:"discount"`
	PaymentMethod string            `json:"paymentMethod"`
	Items         []LineItemPayload `json:"items"`
	Status        string            `json:"status"`
}

// LineItemPayload is a sold item inside a webhook transaction.
type LineItemPayload struct {
	ItemID     string          `json:"itemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Category   string          `json:"category"`
	Modifiers  []string        `json:"modifiers"`
}

// ToDomain converts the webhook payload to a domain transaction.
func (p TransactionPayload) ToDomain() domain.Transaction {
	items := make([]domain.LineItem, len(p.Items))
	for i, item := range p.Items {
		items[i] = domain.LineItem{
			ItemID:     item.ItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
			Category:   item.Category,
			Modifiers:  item.Modifiers,
		}
	}
	var total decimal.Decimal
	if p.TotalAmount != nil {
		total = *p.TotalAmount
	}
	return domain.Transaction{
		TransactionID: p.TransactionID,
		StoreID:       p.StoreID,
		TerminalID:    p.TerminalID,
		Timestamp:     p.Timestamp,
		CustomerID:    p.CustomerID,
		CustomerPhone: p.CustomerPhone,
		CustomerEmail: p.CustomerEmail,
		TotalAmount:   total,
		Subtotal:      p.Subtotal,
		Tax:           p.Tax,
		Tip:           p.Tip,
		Discount:      p.Discount,
		PaymentMethod: p.PaymentMethod,
		Items:         items,
		Status:        domain.TransactionStatus(p.Status),
	}
}

// WebhookAcceptedResponse acknowledges an accepted webhook event.
type WebhookAcceptedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}
