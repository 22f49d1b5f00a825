package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType is the side of the ledger an entry posts to.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// ParseEntryType accepts any casing.
func ParseEntryType(s string) (EntryType, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrEntryTypeRequired
	}

	switch t := EntryType(strings.ToUpper(strings.TrimSpace(s))); t {
	case EntryTypeDebit, EntryTypeCredit:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidEntryType, s)
	}
}

// Opposite flips DEBIT and CREDIT.
func (t EntryType) Opposite() EntryType {
	if t == EntryTypeDebit {
		return EntryTypeCredit
	}
	return EntryTypeDebit
}

// Entry is one debit or credit line of a transaction.
type Entry struct {
	ID            string
	TransactionID string
	AccountID     string
	Type          EntryType
	Amount        decimal.Decimal
	Description   string
	CreatedAt     time.Time
	// AppliedAt is set once settlement has written the entry to its
	// account balance.
	AppliedAt     *time.Time
}

// Applied reports whether the entry already moved its account balance.
func (e *Entry) Applied() bool {
	return e.AppliedAt != nil
}

// SignedAmount is the change the entry makes to its account balance:
// negative for debits, positive for credits.
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Type == EntryTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
