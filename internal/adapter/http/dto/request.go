package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/ledgertx/internal/domain"
	"github.com/iho/ledgertx/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name     string           `json:"name"`
	Type     string           `json:"type"`
	Currency string           `json:"currency"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:           r.Name,
		Type:           r.Type,
		Currency:       r.Currency,
		InitialBalance: r.Balance,
	}
}

// UpdateAccountRequest changes the administrative fields of an account.
// Omitted fields keep their value.
type UpdateAccountRequest struct {
	Name     *string `json:"name,omitempty"`
	Type     *string `json:"type,omitempty"`
	Currency *string `json:"currency,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateAccountRequest) ToUseCaseInput(id string) usecase.UpdateAccountInput {
	return usecase.UpdateAccountInput{
		ID:       id,
		Name:     r.Name,
		Type:     r.Type,
		Currency: r.Currency,
	}
}

// EntryRequest is one proposed entry of a transaction.
type EntryRequest struct {
	AccountID   string          `json:"account_id"`
	EntryType   string          `json:"entry_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// CreateTransactionRequest represents a request to record a transaction.
type CreateTransactionRequest struct {
	ReferenceID string            `json:"reference_id,omitempty"`
	Description string            `json:"description"`
	Currency    string            `json:"currency"`
	Entries     []EntryRequest    `json:"entries"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ToDomain converts to an unvalidated domain request.
func (r *CreateTransactionRequest) ToDomain() domain.TransactionRequest {
	entries := make([]domain.EntryRequest, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = domain.EntryRequest{
			AccountID:   e.AccountID,
			EntryType:   e.EntryType,
			Amount:      e.Amount,
			Description: e.Description,
		}
	}

	return domain.TransactionRequest{
		ReferenceID: r.ReferenceID,
		Description: r.Description,
		Currency:    r.Currency,
		Entries:     entries,
		Metadata:    r.Metadata,
	}
}

// ReverseTransactionRequest represents a request to reverse a transaction.
type ReverseTransactionRequest struct {
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReverseTransactionRequest) ToUseCaseInput(transactionID string) usecase.ReverseTransactionInput {
	return usecase.ReverseTransactionInput{
		TransactionID: transactionID,
		Description:   r.Description,
	}
}
