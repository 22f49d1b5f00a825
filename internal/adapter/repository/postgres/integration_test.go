package postgres_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgertx/internal/adapter/repository/postgres"
	"github.com/iho/ledgertx/internal/domain"
	pgInfra "github.com/iho/ledgertx/internal/infrastructure/postgres"
	"github.com/iho/ledgertx/internal/usecase"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func (p *capturePublisher) Publish(_ context.Context, msg *domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *capturePublisher) drain() []*domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.msgs
	p.msgs = nil
	return msgs
}

type ledgerFixture struct {
	pool       *pgxpool.Pool
	txManager  *postgres.TxManager
	accountDB  *postgres.AccountRepository
	entryDB    *postgres.EntryRepository
	accounts   *usecase.AccountUseCase
	writer     *usecase.TransactionUseCase
	settlement *usecase.SettlementUseCase
	reversal   *usecase.ReversalUseCase
	ledger     *usecase.LedgerUseCase
	publisher  *capturePublisher
}

func newLedgerFixture(t *testing.T, atomic bool) *ledgerFixture {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	_, file, _, _ := runtime.Caller(0)
	migrations := filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
	require.NoError(t, pgInfra.RunMigrations(dbURL, migrations, zerolog.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgInfra.NewPoolWithConfig(ctx, pgInfra.PoolConfig{DatabaseURL: dbURL, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE entries, transactions, accounts CASCADE")
	require.NoError(t, err)

	logger := zerolog.Nop()
	accountRepo := postgres.NewAccountRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	publisher := &capturePublisher{}

	writer := usecase.NewTransactionUseCase(txManager, transactionRepo, entryRepo, publisher,
		domain.NewValidator(domain.DefaultBalanceTolerance), idGen, logger)

	return &ledgerFixture{
		pool:      pool,
		txManager: txManager,
		accountDB: accountRepo,
		entryDB:   entryRepo,
		accounts:  usecase.NewAccountUseCase(accountRepo, idGen),
		writer:    writer,
		settlement: usecase.NewSettlementUseCase(txManager, accountRepo, transactionRepo, entryRepo, logger).
			WithRetrier(postgres.NewRetrier(logger).WithMaxRetries(50)).
			WithAtomicBalances(atomic),
		reversal:  usecase.NewReversalUseCase(transactionRepo, entryRepo, writer, logger),
		ledger:    usecase.NewLedgerUseCase(postgres.NewLedgerRepository(pool), domain.DefaultBalanceTolerance),
		publisher: publisher,
	}
}

func (f *ledgerFixture) account(t *testing.T, name string) *domain.Account {
	t.Helper()
	acc, err := f.accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name: name, Type: "asset", Currency: "usd",
	})
	require.NoError(t, err)
	return acc
}

func transfer(from, to string, amount int64) domain.TransactionRequest {
	return domain.TransactionRequest{
		Description: "Move funds",
		Currency:    "USD",
		Entries: []domain.EntryRequest{
			{AccountID: from, EntryType: "DEBIT", Amount: decimal.NewFromInt(amount)},
			{AccountID: to, EntryType: "CREDIT", Amount: decimal.NewFromInt(amount)},
		},
		Metadata: map[string]string{"channel": "test"},
	}
}

func TestIntegrationWriteSettleReverse(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		name := "per-entry"
		if atomic {
			name = "atomic"
		}
		t.Run(name, func(t *testing.T) {
			f := newLedgerFixture(t, atomic)
			ctx := context.Background()

			a := f.account(t, "alice")
			b := f.account(t, "bob")

			tx, err := f.writer.CreateTransaction(ctx, transfer(a.ID, b.ID, 100))
			require.NoError(t, err)
			assert.Equal(t, domain.TransactionStatusPending, tx.Status)

			entries, err := f.writer.GetTransactionEntries(ctx, tx.ID)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, domain.EntryTypeDebit, entries[0].Type)
			assert.Equal(t, "Move funds", entries[0].Description)

			for _, msg := range f.publisher.drain() {
				require.NoError(t, f.settlement.Process(ctx, msg))
			}

			stored, err := f.writer.GetTransaction(ctx, tx.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.TransactionStatusCompleted, stored.Status)
			assert.Equal(t, "test", stored.Metadata["channel"])

			balA, err := f.accounts.GetAccountBalance(ctx, a.ID)
			require.NoError(t, err)
			balB, err := f.accounts.GetAccountBalance(ctx, b.ID)
			require.NoError(t, err)
			assert.True(t, balA.Equal(decimal.NewFromInt(-100)), "alice balance %s", balA)
			assert.True(t, balB.Equal(decimal.NewFromInt(100)), "bob balance %s", balB)

			reversal, err := f.reversal.ReverseTransaction(ctx, usecase.ReverseTransactionInput{TransactionID: tx.ID})
			require.NoError(t, err)
			assert.Equal(t, domain.ReversalReferencePrefix+tx.ID, reversal.ReferenceID)

			msgs := f.publisher.drain()
			require.Len(t, msgs, 1)
			assert.Equal(t, "true", msgs[0].Attributes[domain.AttributeIsReversal])
			require.NoError(t, f.settlement.Process(ctx, msgs[0]))

			balA, err = f.accounts.GetAccountBalance(ctx, a.ID)
			require.NoError(t, err)
			assert.True(t, balA.IsZero(), "alice balance %s", balA)

			report, err := f.ledger.CheckConsistency(ctx)
			require.NoError(t, err)
			assert.True(t, report.Consistent)
			assert.Equal(t, int64(2), report.Transactions)
		})
	}
}

func TestIntegrationConcurrentSettlementKeepsBalance(t *testing.T) {
	f := newLedgerFixture(t, false)
	ctx := context.Background()

	hub := f.account(t, "hub")
	const n = 20
	for i := 0; i < n; i++ {
		spoke := f.account(t, "spoke")
		_, err := f.writer.CreateTransaction(ctx, transfer(spoke.ID, hub.ID, 5))
		require.NoError(t, err)
	}

	msgs := f.publisher.drain()
	require.Len(t, msgs, n)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, msg := range msgs {
		wg.Add(1)
		go func(msg *domain.Message) {
			defer wg.Done()
			errs <- f.settlement.Process(ctx, msg)
		}(msg)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	balance, err := f.accounts.GetAccountBalance(ctx, hub.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(5*n)), "hub balance %s", balance)
}

func TestIntegrationUnknownAccountFailsSettlement(t *testing.T) {
	f := newLedgerFixture(t, false)
	ctx := context.Background()

	a := f.account(t, "alice")
	tx, err := f.writer.CreateTransaction(ctx, transfer(a.ID, "does-not-exist", 10))
	require.NoError(t, err)

	msgs := f.publisher.drain()
	require.Len(t, msgs, 1)
	err = f.settlement.Process(ctx, msgs[0])
	require.ErrorIs(t, err, domain.ErrSettlementFailed)

	stored, err := f.writer.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, stored.Status)

	// A redelivery of the same message is acknowledged without side effects.
	require.NoError(t, f.settlement.Process(ctx, msgs[0]))
}

func TestIntegrationListFilters(t *testing.T) {
	f := newLedgerFixture(t, false)
	ctx := context.Background()

	a := f.account(t, "alice")
	b := f.account(t, "bob")
	c := f.account(t, "carol")

	_, err := f.writer.CreateTransaction(ctx, transfer(a.ID, b.ID, 1))
	require.NoError(t, err)
	_, err = f.writer.CreateTransaction(ctx, transfer(b.ID, c.ID, 1))
	require.NoError(t, err)

	pending := domain.TransactionStatusPending
	list, err := f.writer.ListTransactions(ctx, domain.TransactionFilter{Status: &pending, AccountID: a.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.writer.ListTransactions(ctx, domain.TransactionFilter{AccountID: b.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assetType := domain.AccountTypeAsset
	accounts, err := postgres.NewAccountRepository(f.pool).List(ctx, domain.AccountFilter{Type: &assetType, Currency: "USD", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, accounts, 3)
}

func TestIntegrationKeepsFullPrecision(t *testing.T) {
	f := newLedgerFixture(t, false)
	ctx := context.Background()

	a := f.account(t, "alice")
	b := f.account(t, "bob")

	amount := decimal.RequireFromString("1.0000000000000000001")
	req := transfer(a.ID, b.ID, 1)
	req.Entries[0].Amount = amount
	req.Entries[1].Amount = amount

	tx, err := f.writer.CreateTransaction(ctx, req)
	require.NoError(t, err)
	for _, msg := range f.publisher.drain() {
		require.NoError(t, f.settlement.Process(ctx, msg))
	}

	stored, err := f.writer.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(amount), "total %s", stored.TotalAmount)

	entries, err := f.writer.GetTransactionEntries(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, entries[0].Amount.Equal(amount), "entry amount %s", entries[0].Amount)

	balB, err := f.accounts.GetAccountBalance(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, balB.Equal(amount), "bob balance %s", balB)
}

func TestIntegrationResumesPartiallyAppliedSettlement(t *testing.T) {
	f := newLedgerFixture(t, false)
	ctx := context.Background()

	a := f.account(t, "alice")
	b := f.account(t, "bob")

	tx, err := f.writer.CreateTransaction(ctx, transfer(a.ID, b.ID, 100))
	require.NoError(t, err)
	msgs := f.publisher.drain()
	require.Len(t, msgs, 1)

	// an earlier delivery committed the debit and stopped
	entries, err := f.writer.GetTransactionEntries(ctx, tx.ID)
	require.NoError(t, err)
	dbTx, err := f.txManager.Begin(ctx)
	require.NoError(t, err)
	marked, err := f.entryDB.MarkApplied(ctx, dbTx, entries[0].ID, time.Now())
	require.NoError(t, err)
	require.True(t, marked)
	require.NoError(t, f.accountDB.UpdateBalance(ctx, dbTx, a.ID, decimal.NewFromInt(-100), 0, time.Now()))
	require.NoError(t, dbTx.Commit(ctx))

	require.NoError(t, f.settlement.Process(ctx, msgs[0]))
	require.NoError(t, f.settlement.Process(ctx, msgs[0]))

	balA, err := f.accounts.GetAccountBalance(ctx, a.ID)
	require.NoError(t, err)
	balB, err := f.accounts.GetAccountBalance(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, balA.Equal(decimal.NewFromInt(-100)), "alice balance %s", balA)
	assert.True(t, balB.Equal(decimal.NewFromInt(100)), "bob balance %s", balB)

	entries, err = f.writer.GetTransactionEntries(ctx, tx.ID)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.Applied(), "entry %s not applied", e.ID)
	}
}
