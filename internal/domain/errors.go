package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the ledger wraps exactly one of
// them, so callers can branch with errors.Is without knowing the detail.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrStore        = errors.New("store failure")
	ErrDecode       = errors.New("decode failure")
)

var (
	// Account errors
	ErrAccountNotFound         = fmt.Errorf("%w: account not found", ErrNotFound)
	ErrAccountInactive         = fmt.Errorf("%w: account is inactive", ErrInvalidState)
	ErrAccountNameRequired     = fmt.Errorf("%w: account name is required", ErrValidation)
	ErrAccountNameTooLong      = fmt.Errorf("%w: account name exceeds %d characters", ErrValidation, MaxAccountNameLength)
	ErrAccountTypeRequired     = fmt.Errorf("%w: account type is required", ErrValidation)
	ErrInvalidAccountType      = fmt.Errorf("%w: invalid account type", ErrValidation)
	ErrAccountCurrencyRequired = fmt.Errorf("%w: account currency is required", ErrValidation)
	ErrVersionConflict         = fmt.Errorf("%w: account was modified concurrently", ErrStore)

	// Transaction errors
	ErrTransactionNotFound   = fmt.Errorf("%w: transaction not found", ErrNotFound)
	ErrDescriptionRequired   = fmt.Errorf("%w: transaction description is required", ErrValidation)
	ErrCurrencyRequired      = fmt.Errorf("%w: transaction currency is required", ErrValidation)
	ErrNoEntries             = fmt.Errorf("%w: transaction must have at least one entry", ErrValidation)
	ErrTooFewEntries         = fmt.Errorf("%w: transaction must have at least two entries to maintain accounting balance", ErrValidation)
	ErrEntryAccountRequired  = fmt.Errorf("%w: account id is required for all entries", ErrValidation)
	ErrEntryTypeRequired     = fmt.Errorf("%w: entry type is required for all entries", ErrValidation)
	ErrInvalidEntryType      = fmt.Errorf("%w: invalid entry type, must be DEBIT or CREDIT", ErrValidation)
	ErrInvalidAmount         = fmt.Errorf("%w: entry amount must be greater than zero", ErrValidation)
	ErrUnbalanced            = fmt.Errorf("%w: transaction is not balanced", ErrValidation)
	ErrInvalidStatus         = fmt.Errorf("%w: invalid transaction status", ErrValidation)
	ErrTransactionNotPending = fmt.Errorf("%w: transaction is no longer pending", ErrInvalidState)
	ErrNotReversible         = fmt.Errorf("%w: cannot reverse a transaction", ErrInvalidState)
	ErrNothingToReverse      = fmt.Errorf("%w: no entries found for the transaction to reverse", ErrInvalidState)

	// Settlement errors
	ErrMissingTransactionID = fmt.Errorf("%w: message carries no transaction id", ErrDecode)
	ErrSettlementInProgress = errors.New("settlement already in progress")
)

// ErrSettlementFailed marks a settlement whose FAILED status has been
// recorded. The message that produced it must not be redelivered.
var ErrSettlementFailed = errors.New("settlement failed")
