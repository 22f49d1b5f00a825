package mocks

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgertx/internal/domain"
	"github.com/iho/ledgertx/internal/usecase"
)

// stage defers op until tx commits when tx is a *MockTransaction, and runs
// it immediately otherwise.
func stage(tx usecase.Transaction, op func()) {
	if mt, ok := tx.(*MockTransaction); ok {
		mt.Stage(op)
		return
	}
	op()
}

// undoOnRollback registers op to run if tx is a *MockTransaction that is
// rolled back. Writes made through it are visible immediately, like a row
// held under lock.
func undoOnRollback(tx usecase.Transaction, op func()) {
	if mt, ok := tx.(*MockTransaction); ok {
		mt.OnRollback(op)
	}
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	c.Metadata = maps.Clone(t.Metadata)
	return &c
}

func copyEntry(e *domain.Entry) *domain.Entry {
	c := *e
	return &c
}

// MockAccountRepository is an in-memory AccountRepository. Reads return
// copies so version checks behave like a real store.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc            func(ctx context.Context, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateFunc            func(ctx context.Context, account *domain.Account) error
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	UpdateBalanceTxFunc   func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	ListFunc              func(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores accounts without going through Create.
func (m *MockAccountRepository) Seed(accounts ...*domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range accounts {
		m.accounts[a.ID] = copyAccount(a)
	}
}

// Account returns the stored state of an account, or nil.
func (m *MockAccountRepository) Account(id string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[id]; ok {
		return copyAccount(a)
	}
	return nil
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = copyAccount(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return copyAccount(acc), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, copyAccount(acc))
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	stored.Name = account.Name
	stored.Type = account.Type
	stored.Currency = account.Currency
	stored.Active = account.Active
	stored.UpdatedAt = account.UpdatedAt
	return nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, expectedVersion, updatedAt)
	}
	return m.ApplyBalance(tx, id, balance, expectedVersion, updatedAt)
}

// ApplyBalance performs the default conditional balance write. Tests that
// override UpdateBalanceFunc can delegate to it.
func (m *MockAccountRepository) ApplyBalance(tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok || acc.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	prev := copyAccount(acc)
	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt

	written := acc.Version
	undoOnRollback(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.accounts[id]; ok && cur.Version == written {
			cur.Balance = prev.Balance
			cur.Version = prev.Version
			cur.UpdatedAt = prev.UpdatedAt
		}
	})
	return nil
}

func (m *MockAccountRepository) UpdateBalanceTx(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceTxFunc != nil {
		return m.UpdateBalanceTxFunc(ctx, tx, id, balance, updatedAt)
	}
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if acc, ok := m.accounts[id]; ok {
			acc.Balance = balance
			acc.Version++
			acc.UpdatedAt = updatedAt
		}
	})
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if filter.Type != nil && acc.Type != *filter.Type {
			continue
		}
		if filter.Currency != "" && acc.Currency != filter.Currency {
			continue
		}
		if filter.Active != nil && acc.Active != *filter.Active {
			continue
		}
		accounts = append(accounts, copyAccount(acc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateStatusFunc   func(ctx context.Context, id string, status domain.TransactionStatus, updatedAt time.Time) error
	UpdateStatusTxFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
	ListFunc           func(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	ListPendingFunc    func(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

// Seed stores transactions without going through Create.
func (m *MockTransactionRepository) Seed(transactions ...*domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range transactions {
		m.transactions[t.ID] = copyTransaction(t)
	}
}

// Len returns the number of stored transactions.
func (m *MockTransactionRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	stored := copyTransaction(t)
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.transactions[stored.ID] = stored
	})
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return copyTransaction(t), nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, updatedAt)
	}
	return m.transition(id, status, updatedAt)
}

func (m *MockTransactionRepository) UpdateStatusTx(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	if m.UpdateStatusTxFunc != nil {
		return m.UpdateStatusTxFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.RLock()
	t, ok := m.transactions[id]
	pending := ok && t.Status == domain.TransactionStatusPending
	m.mu.RUnlock()
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if !pending {
		return domain.ErrTransactionNotPending
	}
	stage(tx, func() { _ = m.transition(id, status, updatedAt) })
	return nil
}

func (m *MockTransactionRepository) transition(id string, status domain.TransactionStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if !t.CanTransitionTo(status) {
		return domain.ErrTransactionNotPending
	}
	t.Status = status
	t.UpdatedAt = updatedAt
	return nil
}

func (m *MockTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, t := range m.transactions {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.From != nil && t.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.Date.After(*filter.To) {
			continue
		}
		result = append(result, copyTransaction(t))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockTransactionRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Transaction, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, createdBefore, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, t := range m.transactions {
		if t.Status == domain.TransactionStatusPending && t.CreatedAt.Before(createdBefore) {
			result = append(result, copyTransaction(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MockEntryRepository is an in-memory EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.Entry

	CreateBatchFunc      func(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry) error
	GetByTransactionFunc func(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	GetByAccountFunc     func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	MarkAppliedFunc      func(ctx context.Context, tx usecase.Transaction, entryID string, appliedAt time.Time) (bool, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

// Seed stores entries without going through CreateBatch.
func (m *MockEntryRepository) Seed(entries ...*domain.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.entries = append(m.entries, copyEntry(e))
	}
}

// Len returns the number of stored entries.
func (m *MockEntryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MockEntryRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, entries)
	}
	stored := make([]*domain.Entry, len(entries))
	for i, e := range entries {
		stored[i] = copyEntry(e)
	}
	stage(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.entries = append(m.entries, stored...)
	})
	return nil
}

func (m *MockEntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	if m.GetByTransactionFunc != nil {
		return m.GetByTransactionFunc(ctx, transactionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range m.entries {
		if e.TransactionID == transactionID {
			entries = append(entries, copyEntry(e))
		}
	}
	return entries, nil
}

func (m *MockEntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	if m.GetByAccountFunc != nil {
		return m.GetByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			entries = append(entries, copyEntry(e))
		}
	}
	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MockEntryRepository) MarkApplied(ctx context.Context, tx usecase.Transaction, entryID string, appliedAt time.Time) (bool, error) {
	if m.MarkAppliedFunc != nil {
		return m.MarkAppliedFunc(ctx, tx, entryID, appliedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID != entryID {
			continue
		}
		if e.AppliedAt != nil {
			return false, nil
		}
		at := appliedAt
		e.AppliedAt = &at
		undoOnRollback(tx, func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			e.AppliedAt = nil
		})
		return true, nil
	}
	return false, nil
}

// Entry returns the stored state of an entry, or nil.
func (m *MockEntryRepository) Entry(id string) *domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			return copyEntry(e)
		}
	}
	return nil
}

// MockTransaction stages writes made through it and applies them on
// Commit. Rollback discards them.
type MockTransaction struct {
	mu         sync.Mutex
	staged     []func()
	undo       []func()
	committed  bool
	rolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

// Stage queues op until Commit.
func (m *MockTransaction) Stage(op func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = append(m.staged, op)
}

// OnRollback queues op to run if the transaction is rolled back before
// commit. Undo ops run in reverse order.
func (m *MockTransaction) OnRollback(op func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, op)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	staged := m.staged
	m.staged = nil
	m.undo = nil
	m.committed = true
	m.mu.Unlock()
	for _, op := range staged {
		op()
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	m.mu.Lock()
	if m.committed {
		m.mu.Unlock()
		return nil
	}
	m.staged = nil
	undo := m.undo
	m.undo = nil
	m.rolledBack = true
	m.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// Committed reports whether Commit succeeded.
func (m *MockTransaction) Committed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed
}

// RolledBack reports whether the transaction was rolled back before commit.
func (m *MockTransaction) RolledBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rolledBack
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	mu           sync.Mutex
	transactions []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
	// CommitErr, when set, makes every transaction fail to commit.
	CommitErr error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	if m.CommitErr != nil {
		commitErr := m.CommitErr
		tx.CommitFunc = func(context.Context) error { return commitErr }
	}
	m.mu.Lock()
	m.transactions = append(m.transactions, tx)
	m.mu.Unlock()
	return tx, nil
}

// Transactions returns every transaction handed out so far.
func (m *MockTransactionManager) Transactions() []*MockTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockTransaction(nil), m.transactions...)
}

// MockIDGenerator returns sequential IDs unless GenerateFunc is set.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockIdempotencyStore is an in-memory IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.Mutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	m.data[key] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return errors.New("idempotency key not found")
	}
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Stored returns the response recorded for key.
func (m *MockIdempotencyStore) Stored(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

var (
	_ usecase.AccountRepository     = (*MockAccountRepository)(nil)
	_ usecase.TransactionRepository = (*MockTransactionRepository)(nil)
	_ usecase.EntryRepository       = (*MockEntryRepository)(nil)
	_ usecase.TransactionManager    = (*MockTransactionManager)(nil)
	_ usecase.IDGenerator           = (*MockIDGenerator)(nil)
	_ usecase.IdempotencyStore      = (*MockIdempotencyStore)(nil)
)
