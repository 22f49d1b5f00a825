package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxAccountNameLength bounds the display name of an account.
const MaxAccountNameLength = 255

// AccountType classifies an account in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountTypes returns every supported account type.
func AccountTypes() []AccountType {
	return []AccountType{
		AccountTypeAsset,
		AccountTypeLiability,
		AccountTypeEquity,
		AccountTypeRevenue,
		AccountTypeExpense,
	}
}

// IsValid reports whether t is one of the supported account types.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// ParseAccountType accepts any casing and surrounding whitespace.
func ParseAccountType(s string) (AccountType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if normalized == "" {
		return "", ErrAccountTypeRequired
	}

	t := AccountType(normalized)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %s, valid types are %s", ErrInvalidAccountType, s, joinAccountTypes())
	}

	return t, nil
}

func joinAccountTypes() string {
	types := AccountTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// NormalizeCurrency returns the canonical form of a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// ValidateAccountName checks the display name of an account.
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrAccountNameRequired
	}
	if len(name) > MaxAccountNameLength {
		return ErrAccountNameTooLong
	}
	return nil
}

// Account is a named balance holder in a single currency.
//
// Balance only changes through settlement. Version increases by one on every
// successful balance write and guards concurrent updates.
type Account struct {
	ID        string
	Name      string
	Type      AccountType
	Currency  string
	Balance   decimal.Decimal
	Version   int64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EnsureActive returns ErrAccountInactive for deactivated accounts.
func (a *Account) EnsureActive() error {
	if !a.Active {
		return fmt.Errorf("%w: %s", ErrAccountInactive, a.ID)
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// ApplyEntry returns the balance the account would hold after the entry.
func (a *Account) ApplyEntry(e *Entry) decimal.Decimal {
	if e.Type == EntryTypeDebit {
		return a.ApplyDebit(e.Amount)
	}
	return a.ApplyCredit(e.Amount)
}

// AccountFilter narrows account listings. Nil fields match everything.
type AccountFilter struct {
	Type     *AccountType
	Currency string
	Active   *bool
	Limit    int
	Offset   int
}
