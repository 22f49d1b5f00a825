package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/iho/ledgertx/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgertx/internal/usecase"
)

func TestTxManagerBeginCommit(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectCommit()

	tx := beginTx(t, mockPool)
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTxManagerBeginError(t *testing.T) {
	mockPool := newMockPool(t)
	beginErr := errors.New("begin failed")
	mockPool.ExpectBegin().WillReturnError(beginErr)

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if !errors.Is(err, beginErr) {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}
	if tx != nil {
		t.Fatalf("expected no transaction on failure")
	}
}

func TestTxRollback(t *testing.T) {
	otherErr := errors.New("connection lost")

	tests := []struct {
		name        string
		rollbackErr error
		wantErr     error
	}{
		{name: "open transaction", rollbackErr: nil, wantErr: nil},
		{name: "already finished", rollbackErr: pgx.ErrTxClosed, wantErr: nil},
		{name: "driver failure", rollbackErr: otherErr, wantErr: otherErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			mockPool.ExpectBegin()
			if tt.rollbackErr != nil {
				mockPool.ExpectRollback().WillReturnError(tt.rollbackErr)
			} else {
				mockPool.ExpectRollback()
			}

			err := beginTx(t, mockPool).Rollback(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			assertExpectations(t, mockPool)
		})
	}
}

func TestQueriesFor(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE entries SET applied_at").
		WithArgs("e-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	tx := beginTx(t, mockPool)
	queries, err := queriesFor(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := queries.MarkEntryApplied(context.Background(), generated.MarkEntryAppliedParams{
		ID:        "e-1",
		AppliedAt: timeToPgTimestamptz(time.Now()),
	}); err != nil {
		t.Fatalf("query through transaction failed: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := queriesFor(foreignTx{}); err == nil || !strings.Contains(err.Error(), "foreignTx") {
		t.Fatalf("expected unsupported type error naming the type, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func beginTx(t *testing.T, pool pgxPool) usecase.Transaction {
	t.Helper()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
