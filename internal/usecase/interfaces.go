package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgertx/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// Update persists name, type, currency and the active flag. It never
	// touches the balance.
	Update(ctx context.Context, account *domain.Account) error
	// UpdateBalance writes balance inside tx if the stored version still
	// equals expectedVersion and bumps the version. Otherwise it returns
	// domain.ErrVersionConflict.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	// UpdateBalanceTx writes balance inside tx. The row must already be
	// locked by GetByIDsForUpdate.
	UpdateBalanceTx(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error)
}

// TransactionRepository defines data access for transaction headers.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// UpdateStatus moves a PENDING transaction to status. A transaction
	// that is no longer pending yields domain.ErrTransactionNotPending.
	UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, updatedAt time.Time) error
	UpdateStatusTx(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Transaction, error)
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, entries []*domain.Entry) error
	GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	// MarkApplied records inside tx that the entry reached its account
	// balance. It returns false if the entry was already marked.
	MarkApplied(ctx context.Context, tx Transaction, entryID string, appliedAt time.Time) (bool, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	// EntryTotals sums the amounts of every DEBIT and every CREDIT entry
	// and counts the transactions they belong to.
	EntryTotals(ctx context.Context) (debits, credits decimal.Decimal, transactions int64, err error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs op while it fails with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, op func() error) error
}

// SettlementPublisher enqueues settlement messages.
type SettlementPublisher interface {
	Publish(ctx context.Context, msg *domain.Message) error
}

// SettlementGuard serializes settlement attempts for the same transaction
// across workers.
type SettlementGuard interface {
	// TryLock returns false when another worker holds the lock.
	TryLock(ctx context.Context, transactionID string) (bool, error)
	Unlock(ctx context.Context, transactionID string) error
}

// Metrics receives business events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	TransactionCreated(reversal bool)
	EnqueueFailed()
	SettlementFinished(status domain.TransactionStatus, elapsed time.Duration)
	SettlementSkipped()
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not succeed so it can be retried.
	Release(ctx context.Context, key string) error
}
