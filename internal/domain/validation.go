package domain

import (
	"fmt"
	"maps"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBalanceTolerance is the largest debit/credit difference accepted
// as balanced.
var DefaultBalanceTolerance = decimal.RequireFromString("0.001")

// EntryRequest is one proposed entry before validation.
type EntryRequest struct {
	AccountID   string
	EntryType   string
	Amount      decimal.Decimal
	Description string
}

// TransactionRequest is a proposed transaction before validation.
type TransactionRequest struct {
	ReferenceID string
	Description string
	Currency    string
	Entries     []EntryRequest
	Metadata    map[string]string
}

// ValidatedEntry is an entry that passed validation.
type ValidatedEntry struct {
	AccountID   string
	Type        EntryType
	Amount      decimal.Decimal
	Description string
}

// ValidatedTransaction is a transaction request that passed validation.
type ValidatedTransaction struct {
	ReferenceID  string
	Description  string
	Currency     string
	Entries      []ValidatedEntry
	Metadata     map[string]string
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// Validator checks the double-entry rules of a transaction request.
// It has no side effects.
type Validator struct {
	tolerance decimal.Decimal
}

// NewValidator returns a Validator. A zero tolerance requires debits and
// credits to match exactly; a negative one falls back to
// DefaultBalanceTolerance.
func NewValidator(tolerance decimal.Decimal) *Validator {
	if tolerance.IsNegative() {
		tolerance = DefaultBalanceTolerance
	}
	return &Validator{tolerance: tolerance}
}

// Tolerance returns the accepted debit/credit difference.
func (v *Validator) Tolerance() decimal.Decimal {
	return v.tolerance
}

// Validate returns the first rule the request violates, or the validated
// transaction. Entry types are canonicalized to upper case.
func (v *Validator) Validate(req TransactionRequest) (*ValidatedTransaction, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if strings.TrimSpace(req.Currency) == "" {
		return nil, ErrCurrencyRequired
	}
	if len(req.Entries) == 0 {
		return nil, ErrNoEntries
	}
	if len(req.Entries) < 2 {
		return nil, ErrTooFewEntries
	}

	validated := &ValidatedTransaction{
		ReferenceID:  req.ReferenceID,
		Description:  req.Description,
		Currency:     NormalizeCurrency(req.Currency),
		Entries:      make([]ValidatedEntry, 0, len(req.Entries)),
		Metadata:     make(map[string]string, len(req.Metadata)),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	maps.Copy(validated.Metadata, req.Metadata)

	for _, e := range req.Entries {
		if strings.TrimSpace(e.AccountID) == "" {
			return nil, ErrEntryAccountRequired
		}

		entryType, err := ParseEntryType(e.EntryType)
		if err != nil {
			return nil, err
		}

		if !e.Amount.IsPositive() {
			return nil, ErrInvalidAmount
		}

		if entryType == EntryTypeDebit {
			validated.TotalDebits = validated.TotalDebits.Add(e.Amount)
		} else {
			validated.TotalCredits = validated.TotalCredits.Add(e.Amount)
		}

		validated.Entries = append(validated.Entries, ValidatedEntry{
			AccountID:   e.AccountID,
			Type:        entryType,
			Amount:      e.Amount,
			Description: e.Description,
		})
	}

	if validated.TotalDebits.Sub(validated.TotalCredits).Abs().GreaterThan(v.tolerance) {
		return nil, fmt.Errorf("%w: total debits %s, total credits %s",
			ErrUnbalanced, validated.TotalDebits, validated.TotalCredits)
	}

	return validated, nil
}
