package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// ParseTransactionStatus accepts any casing.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch st := TransactionStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, s)
	}
}

// Reversal markers.
const (
	ReversalReferencePrefix       = "REVERSE-"
	MetadataOriginalTransactionID = "OriginalTransactionId"
	MetadataReverseOperation      = "ReverseOperation"
)

// Transaction is the header of a balanced set of entries.
//
// TotalAmount is the sum of the debit entries. Status only moves from
// PENDING to COMPLETED or FAILED.
type Transaction struct {
	ID          string
	ReferenceID string
	Date        time.Time
	Description string
	Status      TransactionStatus
	TotalAmount decimal.Decimal
	Currency    string
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanTransitionTo reports whether the status may move to next.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	return t.Status == TransactionStatusPending && next.IsTerminal()
}

// IsReversal reports whether the transaction was produced by a reversal.
func (t *Transaction) IsReversal() bool {
	return t.Metadata[MetadataReverseOperation] == "true"
}

// TransactionFilter narrows transaction listings. Zero fields match everything.
type TransactionFilter struct {
	Status    *TransactionStatus
	AccountID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
