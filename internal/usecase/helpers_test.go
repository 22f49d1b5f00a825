package usecase_test

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgertx/internal/domain"
)

// conflictRetrier retries version conflicts without backing off.
type conflictRetrier struct {
	attempts int
}

func (r conflictRetrier) Retry(_ context.Context, op func() error) error {
	var err error
	for i := 0; i < r.attempts; i++ {
		if err = op(); !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return err
}

func activeAccount(id string, balance int64) *domain.Account {
	now := time.Now().UTC()
	return &domain.Account{
		ID:        id,
		Name:      id,
		Type:      domain.AccountTypeAsset,
		Currency:  "USD",
		Balance:   decimal.NewFromInt(balance),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func transferRequest(debit, credit string, amount int64) domain.TransactionRequest {
	return domain.TransactionRequest{
		ReferenceID: "REF-1",
		Description: "Move funds",
		Currency:    "usd",
		Entries: []domain.EntryRequest{
			{AccountID: debit, EntryType: "debit", Amount: decimal.NewFromInt(amount)},
			{AccountID: credit, EntryType: "credit", Amount: decimal.NewFromInt(amount), Description: "incoming"},
		},
		Metadata: map[string]string{"channel": "api"},
	}
}
