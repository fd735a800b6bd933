package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalType distinguishes accrual journals from redemption journals.
type JournalType string

const (
	Accrual    JournalType = "Accrual"
	Redemption JournalType = "Redemption"
)

// EventType is the direction of a ledger line.
type EventType string

const (
	Credit EventType = "Credit"
	Debit  EventType = "Debit"
)

// TransactionJournal groups ledger lines under a single external transaction
// reference. Append-only; voids post an offsetting journal rather than mutating
// the original.
type TransactionJournal struct {
	JournalID                 string          `json:"journalId"`
	JournalType               JournalType     `json:"journalType"`
	MemberID                  string          `json:"memberId"`
	TransactionAmount         decimal.Decimal `json:"transactionAmount,omitempty"`
	Status                    string          `json:"status"`
	ExternalTransactionNumber string          `json:"externalTransactionNumber"`
	ActivityDate              time.Time       `json:"activityDate"`
}

// LedgerEntry is a single signed point delta against a member, referencing the
// journal that produced it. Current balance = sum of non-expired entries.
type LedgerEntry struct {
	EntryID        string     `json:"entryId"`
	MemberID       string     `json:"memberId"`
	JournalID      string     `json:"journalId"`
	EventType      EventType  `json:"eventType"`
	Points         int64      `json:"points"` // signed: Credit positive, Debit negative
	ActivityDate   time.Time  `json:"activityDate"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
}

// PostResult is the outcome of a ledger posting (award or redeem).
type PostResult struct {
	JournalID  string `json:"journalId"`
	Points     int64  `json:"points"`
	NewBalance int64  `json:"newBalance"`
}
