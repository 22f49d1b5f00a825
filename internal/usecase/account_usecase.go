package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgertx/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name           string
	Type           string
	Currency       string
	InitialBalance *decimal.Decimal
}

// CreateAccount creates a new active account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	accountType, err := domain.ParseAccountType(input.Type)
	if err != nil {
		return nil, err
	}

	currency := domain.NormalizeCurrency(input.Currency)
	if currency == "" {
		return nil, domain.ErrAccountCurrencyRequired
	}

	balance := decimal.Zero
	if input.InitialBalance != nil {
		balance = *input.InitialBalance
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		Name:      input.Name,
		Type:      accountType,
		Currency:  currency,
		Balance:   balance,
		Version:   0,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountBalance returns the current balance of an account.
func (uc *AccountUseCase) GetAccountBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Type     string
	Currency string
	Active   *bool
	Limit    int
	Offset   int
}

// ListAccounts lists accounts with optional filters and pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	filter := domain.AccountFilter{
		Currency: domain.NormalizeCurrency(input.Currency),
		Active:   input.Active,
		Limit:    pageSize(input.Limit),
		Offset:   max(input.Offset, 0),
	}

	if input.Type != "" {
		accountType, err := domain.ParseAccountType(input.Type)
		if err != nil {
			return nil, err
		}
		filter.Type = &accountType
	}

	return uc.accountRepo.List(ctx, filter)
}

// UpdateAccountInput represents input for updating an account. Nil fields
// are left as they are.
type UpdateAccountInput struct {
	ID       string
	Name     *string
	Type     *string
	Currency *string
}

// UpdateAccount changes the administrative fields of an active account.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, input UpdateAccountInput) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if err := account.EnsureActive(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := domain.ValidateAccountName(*input.Name); err != nil {
			return nil, err
		}
		account.Name = *input.Name
	}

	if input.Type != nil {
		accountType, err := domain.ParseAccountType(*input.Type)
		if err != nil {
			return nil, err
		}
		account.Type = accountType
	}

	if input.Currency != nil {
		currency := domain.NormalizeCurrency(*input.Currency)
		if currency == "" {
			return nil, domain.ErrAccountCurrencyRequired
		}
		account.Currency = currency
	}

	account.UpdatedAt = time.Now().UTC()

	if err := uc.accountRepo.Update(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// DeactivateAccount marks an account inactive. Deactivating an inactive
// account succeeds without writing.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, id string) (bool, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if !account.Active {
		return true, nil
	}

	account.Active = false
	account.UpdatedAt = time.Now().UTC()

	if err := uc.accountRepo.Update(ctx, account); err != nil {
		return false, err
	}

	return true, nil
}
