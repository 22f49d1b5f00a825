package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgertx/internal/domain"
	"github.com/iho/ledgertx/internal/usecase"
	"github.com/iho/ledgertx/internal/usecase/mocks"
)

func TestEntryUseCase_GetEntriesByAccount(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.Seed(activeAccount("acc-1", 0))

	entryRepo := mocks.NewMockEntryRepository()
	entryRepo.Seed(
		&domain.Entry{ID: "e1", TransactionID: "tx-1", AccountID: "acc-1", Type: domain.EntryTypeDebit, Amount: decimal.NewFromInt(100)},
		&domain.Entry{ID: "e2", TransactionID: "tx-1", AccountID: "acc-2", Type: domain.EntryTypeCredit, Amount: decimal.NewFromInt(100)},
		&domain.Entry{ID: "e3", TransactionID: "tx-2", AccountID: "acc-1", Type: domain.EntryTypeCredit, Amount: decimal.NewFromInt(50)},
	)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo)

	entries, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{
		AccountID: "acc-1",
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}

	entries, err = uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{
		AccountID: "acc-1",
		Limit:     1,
		Offset:    1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "e3" {
		t.Errorf("expected second page to hold e3, got %+v", entries)
	}
}

func TestEntryUseCase_GetEntriesByAccount_UnknownAccount(t *testing.T) {
	uc := usecase.NewEntryUseCase(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository())

	_, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{AccountID: "missing"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
