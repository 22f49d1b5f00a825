package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	tolerance := decimal.RequireFromString("0.001")

	tests := []struct {
		name        string
		repo        *fakeLedgerRepository
		want        bool
		expectedErr error
	}{
		{
			name: "happy path balanced ledger",
			repo: &fakeLedgerRepository{
				debits:       decimal.NewFromInt(500),
				credits:      decimal.NewFromInt(500),
				transactions: 3,
			},
			want: true,
		},
		{
			name: "empty ledger",
			repo: &fakeLedgerRepository{},
			want: true,
		},
		{
			name: "drift within accumulated tolerance",
			repo: &fakeLedgerRepository{
				debits:       decimal.RequireFromString("100.002"),
				credits:      decimal.NewFromInt(100),
				transactions: 2,
			},
			want: true,
		},
		{
			name: "drift above accumulated tolerance",
			repo: &fakeLedgerRepository{
				debits:       decimal.RequireFromString("100.003"),
				credits:      decimal.NewFromInt(100),
				transactions: 2,
			},
			want:        false,
			expectedErr: ErrInconsistentLedger,
		},
		{
			name: "more credits than debits",
			repo: &fakeLedgerRepository{
				debits:       decimal.NewFromInt(10),
				credits:      decimal.NewFromInt(11),
				transactions: 1,
			},
			want:        false,
			expectedErr: ErrInconsistentLedger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewLedgerUseCase(tt.repo, tolerance)
			report, err := uc.CheckConsistency(context.Background())

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if report.Consistent != tt.want {
				t.Fatalf("Consistent = %v, want %v", report.Consistent, tt.want)
			}
			if !report.Difference.Equal(tt.repo.debits.Sub(tt.repo.credits)) {
				t.Errorf("unexpected difference %s", report.Difference)
			}
		})
	}
}

func TestLedgerUseCase_RepositoryError(t *testing.T) {
	repo := &fakeLedgerRepository{err: errors.New("db down")}
	uc := NewLedgerUseCase(repo, decimal.Zero)

	report, err := uc.CheckConsistency(context.Background())
	if err == nil || err.Error() != "db down" {
		t.Fatalf("expected repository error, got %v", err)
	}
	if report != nil {
		t.Fatal("expected no report on error")
	}
	if repo.calls != 1 {
		t.Fatalf("expected CheckConsistency to call repository once, got %d", repo.calls)
	}
}

type fakeLedgerRepository struct {
	debits       decimal.Decimal
	credits      decimal.Decimal
	transactions int64
	err          error
	calls        int
}

func (f *fakeLedgerRepository) EntryTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, int64, error) {
	f.calls++
	return f.debits, f.credits, f.transactions, f.err
}
