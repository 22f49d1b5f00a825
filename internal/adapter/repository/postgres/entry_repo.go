package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgertx/internal/domain"
	"github.com/iho/ledgertx/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgertx/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// CreateBatch inserts entries inside tx, remembering their order.
func (r *EntryRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		err := queries.CreateEntry(ctx, generated.CreateEntryParams{
			ID:            entry.ID,
			TransactionID: entry.TransactionID,
			AccountID:     entry.AccountID,
			EntryType:     string(entry.Type),
			Amount:        decimalToNumeric(entry.Amount),
			Description:   entry.Description,
			Position:      int32(i),
			CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByTransaction retrieves the entries of a transaction in submission order.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// GetByAccount retrieves entries by account ID, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.queries.GetEntriesByAccount(ctx, generated.GetEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// MarkApplied stamps the entry as applied inside tx. It returns false when
// the entry was already applied by an earlier delivery.
func (r *EntryRepository) MarkApplied(ctx context.Context, tx usecase.Transaction, entryID string, appliedAt time.Time) (bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return false, err
	}

	n, err := queries.MarkEntryApplied(ctx, generated.MarkEntryAppliedParams{
		ID:        entryID,
		AppliedAt: timeToPgTimestamptz(appliedAt),
	})
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func rowsToEntries(rows []generated.Entry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}
	return entries
}

func rowToEntry(row generated.Entry) *domain.Entry {
	return &domain.Entry{
		ID:            row.ID,
		TransactionID: row.TransactionID,
		AccountID:     row.AccountID,
		Type:          domain.EntryType(row.EntryType),
		Amount:        numericToDecimal(row.Amount),
		Description:   row.Description,
		CreatedAt:     row.CreatedAt.Time,
		AppliedAt:     pgTimestamptzToOptional(row.AppliedAt),
	}
}
