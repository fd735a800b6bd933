package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus indicates the state of a POS transaction.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionVoided    TransactionStatus = "voided"
	TransactionRefunded  TransactionStatus = "refunded"
)

// LineItem is a single item sold on a POS transaction.
type LineItem struct {
	ItemID     string          `json:"itemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Category   string          `json:"category,omitempty"`
	Modifiers  []string        `json:"modifiers,omitempty"`
}

// Transaction is a point-of-sale transaction as pushed by the POS webhook or
// fetched from the POS backend. Immutable once received; only Status transitions
// (completed -> voided).
type Transaction struct {
	TransactionID string            `json:"transactionId"` // POS-assigned unique ID
	StoreID       string            `json:"storeId"`
	TerminalID    string            `json:"terminalId,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	CustomerID    string            `json:"customerId,omitempty"`
	CustomerPhone string            `json:"customerPhone,omitempty"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
	TotalAmount   decimal.Decimal   `json:"totalAmount"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	Tip           decimal.Decimal   `json:"tip"`
	Discount      decimal.Decimal   `json:"discount"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	Items         []LineItem        `json:"items,omitempty"`
	Status        TransactionStatus `json:"status"`
}

// Customer is a POS customer record, used for member resolution fallback and
// the best-effort loyalty-number write-back.
type Customer struct {
	CustomerID    string `json:"customerId"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	LoyaltyNumber string `json:"loyaltyNumber,omitempty"`
}
