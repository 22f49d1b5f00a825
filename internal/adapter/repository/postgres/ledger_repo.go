package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgertx/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// EntryTotals sums every DEBIT and every CREDIT entry.
func (r *LedgerRepository) EntryTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, int64, error) {
	row, err := r.queries.GetEntryTotals(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, err
	}

	return numericToDecimal(row.TotalDebits), numericToDecimal(row.TotalCredits), row.TransactionCount, nil
}
