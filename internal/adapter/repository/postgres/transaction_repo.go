package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgertx/internal/domain"
	"github.com/iho/ledgertx/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgertx/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create inserts the transaction header inside tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	metadata, err := encodeMetadata(t.Metadata)
	if err != nil {
		return err
	}

	return queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:              t.ID,
		ReferenceID:     t.ReferenceID,
		TransactionDate: timeToPgTimestamptz(t.Date),
		Description:     t.Description,
		Status:          string(t.Status),
		TotalAmount:     decimalToNumeric(t.TotalAmount),
		Currency:        t.Currency,
		Metadata:        metadata,
		CreatedAt:       timeToPgTimestamptz(t.CreatedAt),
		UpdatedAt:       timeToPgTimestamptz(t.UpdatedAt),
	})
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row)
}

// UpdateStatus moves a PENDING transaction to status.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	return updateStatus(ctx, r.queries, id, status, updatedAt)
}

// UpdateStatusTx is UpdateStatus inside tx.
func (r *TransactionRepository) UpdateStatusTx(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return updateStatus(ctx, queries, id, status, updatedAt)
}

func updateStatus(ctx context.Context, queries *generated.Queries, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	n, err := queries.UpdatePendingTransactionStatus(ctx, generated.UpdatePendingTransactionStatusParams{
		ID:        id,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	current, err := queries.GetTransactionStatus(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTransactionNotFound
		}
		return err
	}

	return fmt.Errorf("%w: status is %s", domain.ErrTransactionNotPending, current)
}

// List lists transactions matching filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	params := generated.ListTransactionsParams{
		FromDate:  optionalTimestamptz(filter.From),
		ToDate:    optionalTimestamptz(filter.To),
		AccountID: optionalText(filter.AccountID),
		Limit:     int32(filter.Limit),
		Offset:    int32(filter.Offset),
	}
	if filter.Status != nil {
		params.Status = optionalText(string(*filter.Status))
	}

	rows, err := r.queries.ListTransactions(ctx, params)
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

// ListPending returns up to limit PENDING transactions created before
// createdBefore, oldest first.
func (r *TransactionRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListPendingTransactions(ctx, generated.ListPendingTransactionsParams{
		CreatedAt: timeToPgTimestamptz(createdBefore),
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

func rowsToTransactions(rows []generated.Transaction) ([]*domain.Transaction, error) {
	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, nil
}

func rowToTransaction(row generated.Transaction) (*domain.Transaction, error) {
	var metadata map[string]string
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of transaction %s: %w", row.ID, err)
		}
	}

	return &domain.Transaction{
		ID:          row.ID,
		ReferenceID: row.ReferenceID,
		Date:        row.TransactionDate.Time,
		Description: row.Description,
		Status:      domain.TransactionStatus(row.Status),
		TotalAmount: numericToDecimal(row.TotalAmount),
		Currency:    row.Currency,
		Metadata:    metadata,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}, nil
}

func encodeMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(metadata)
}
