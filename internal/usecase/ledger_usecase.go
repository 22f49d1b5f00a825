package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// ConsistencyReport summarizes the debit and credit totals of every entry.
type ConsistencyReport struct {
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Difference   decimal.Decimal
	Transactions int64
	Consistent   bool
}

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
	tolerance  decimal.Decimal
}

// NewLedgerUseCase creates a new LedgerUseCase. tolerance is the per
// transaction imbalance the validator accepts.
func NewLedgerUseCase(ledgerRepo LedgerRepository, tolerance decimal.Decimal) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
		tolerance:  tolerance,
	}
}

// CheckConsistency verifies that total debits equal total credits. Every
// transaction may carry up to the validator tolerance, so the accepted
// difference grows with the number of transactions.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	debits, credits, transactions, err := uc.ledgerRepo.EntryTotals(ctx)
	if err != nil {
		return nil, err
	}

	difference := debits.Sub(credits)
	allowed := uc.tolerance.Mul(decimal.NewFromInt(transactions))

	report := &ConsistencyReport{
		TotalDebits:  debits,
		TotalCredits: credits,
		Difference:   difference,
		Transactions: transactions,
		Consistent:   difference.Abs().LessThanOrEqual(allowed),
	}

	if !report.Consistent {
		return report, ErrInconsistentLedger
	}

	return report, nil
}
