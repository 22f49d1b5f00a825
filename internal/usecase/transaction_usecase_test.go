package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/ledgertx/internal/domain"
	"github.com/iho/ledgertx/internal/usecase"
	"github.com/iho/ledgertx/internal/usecase/mocks"
)

type writerFixture struct {
	txManager *mocks.MockTransactionManager
	txRepo    *mocks.MockTransactionRepository
	entryRepo *mocks.MockEntryRepository
	publisher *mocks.MockSettlementPublisher
	metrics   *mocks.MockMetrics
	uc        *usecase.TransactionUseCase
}

func newWriterFixture(t *testing.T) *writerFixture {
	ctrl := gomock.NewController(t)
	f := &writerFixture{
		txManager: mocks.NewMockTransactionManager(),
		txRepo:    mocks.NewMockTransactionRepository(),
		entryRepo: mocks.NewMockEntryRepository(),
		publisher: mocks.NewMockSettlementPublisher(ctrl),
		metrics:   mocks.NewMockMetrics(ctrl),
	}
	f.uc = usecase.NewTransactionUseCase(
		f.txManager,
		f.txRepo,
		f.entryRepo,
		f.publisher,
		domain.NewValidator(decimal.Zero),
		mocks.NewMockIDGenerator(),
		zerolog.Nop(),
	).WithMetrics(f.metrics)
	return f
}

func TestTransactionUseCase_WriteTransaction(t *testing.T) {
	f := newWriterFixture(t)

	tx, entries, err := f.uc.WriteTransaction(context.Background(), transferRequest("cash", "revenue", 100))
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionStatusPending, tx.Status)
	assert.True(t, tx.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "USD", tx.Currency)
	assert.Equal(t, "REF-1", tx.ReferenceID)
	assert.Equal(t, "api", tx.Metadata["channel"])
	assert.False(t, tx.Date.IsZero())

	require.Len(t, entries, 2)
	assert.Equal(t, domain.EntryTypeDebit, entries[0].Type)
	assert.Equal(t, domain.EntryTypeCredit, entries[1].Type)
	assert.Equal(t, "Move funds", entries[0].Description, "empty entry description falls back to the transaction")
	assert.Equal(t, "incoming", entries[1].Description)
	for _, e := range entries {
		assert.Equal(t, tx.ID, e.TransactionID)
		assert.NotEqual(t, tx.ID, e.ID)
	}

	assert.Equal(t, 1, f.txRepo.Len())
	assert.Equal(t, 2, f.entryRepo.Len())

	stored, err := f.txRepo.GetByID(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, stored.Status)
}

func TestTransactionUseCase_WriteTransaction_ValidationFailure(t *testing.T) {
	f := newWriterFixture(t)

	req := transferRequest("cash", "revenue", 100)
	req.Entries[1].Amount = decimal.NewFromInt(60)

	_, _, err := f.uc.WriteTransaction(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrUnbalanced)
	assert.Empty(t, f.txManager.Transactions(), "no database transaction on validation failure")
	assert.Equal(t, 0, f.txRepo.Len())
}

func TestTransactionUseCase_WriteTransaction_AllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *writerFixture)
	}{
		{
			name: "entry write fails",
			setup: func(f *writerFixture) {
				f.entryRepo.CreateBatchFunc = func(context.Context, usecase.Transaction, []*domain.Entry) error {
					return domain.ErrStore
				}
			},
		},
		{
			name: "header write fails",
			setup: func(f *writerFixture) {
				f.txRepo.CreateFunc = func(context.Context, usecase.Transaction, *domain.Transaction) error {
					return domain.ErrStore
				}
			},
		},
		{
			name: "commit fails",
			setup: func(f *writerFixture) {
				f.txManager.CommitErr = domain.ErrStore
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWriterFixture(t)
			tt.setup(f)

			_, _, err := f.uc.WriteTransaction(context.Background(), transferRequest("cash", "revenue", 100))
			require.ErrorIs(t, err, domain.ErrStore)

			assert.Equal(t, 0, f.txRepo.Len())
			assert.Equal(t, 0, f.entryRepo.Len())

			txs := f.txManager.Transactions()
			require.Len(t, txs, 1)
			assert.False(t, txs[0].Committed())
			assert.True(t, txs[0].RolledBack())
		})
	}
}

func TestTransactionUseCase_CreateTransaction_Enqueues(t *testing.T) {
	f := newWriterFixture(t)

	var published *domain.Message
	f.metrics.EXPECT().TransactionCreated(false)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *domain.Message) error {
			published = msg
			return nil
		})

	tx, err := f.uc.CreateTransaction(context.Background(), transferRequest("cash", "revenue", 50))
	require.NoError(t, err)

	require.NotNil(t, published)
	assert.Equal(t, tx.ID, published.Attributes[domain.AttributeTransactionID])
	assert.NotContains(t, published.Attributes, domain.AttributeIsReversal)

	decoded, err := domain.DecodeSettlement(published.Body)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, decoded.ID)
	assert.Equal(t, domain.TransactionStatusPending, decoded.Status)
}

func TestTransactionUseCase_CreateTransaction_PublishFailureKeepsTransaction(t *testing.T) {
	f := newWriterFixture(t)

	f.metrics.EXPECT().TransactionCreated(false)
	f.metrics.EXPECT().EnqueueFailed()
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("queue unavailable"))

	tx, err := f.uc.CreateTransaction(context.Background(), transferRequest("cash", "revenue", 50))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, tx.Status)
	assert.Equal(t, 1, f.txRepo.Len())
}

func TestTransactionUseCase_Submit_Reversal(t *testing.T) {
	f := newWriterFixture(t)

	f.metrics.EXPECT().TransactionCreated(true)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *domain.Message) error {
			assert.Equal(t, "true", msg.Attributes[domain.AttributeIsReversal])
			return nil
		})

	_, err := f.uc.Submit(context.Background(), transferRequest("cash", "revenue", 50), true)
	require.NoError(t, err)
}

func TestTransactionUseCase_Queries(t *testing.T) {
	f := newWriterFixture(t)
	ctx := context.Background()

	tx, _, err := f.uc.WriteTransaction(ctx, transferRequest("cash", "revenue", 10))
	require.NoError(t, err)

	got, err := f.uc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	entries, err := f.uc.GetTransactionEntries(ctx, tx.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = f.uc.GetTransactionEntries(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	pending := domain.TransactionStatusPending
	list, err := f.uc.ListTransactions(ctx, domain.TransactionFilter{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	completed := domain.TransactionStatusCompleted
	list, err = f.uc.ListTransactions(ctx, domain.TransactionFilter{Status: &completed})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransactionUseCase_ListTransactions_ClampsLimit(t *testing.T) {
	f := newWriterFixture(t)

	var got domain.TransactionFilter
	f.txRepo.ListFunc = func(_ context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
		got = filter
		return nil, nil
	}

	_, err := f.uc.ListTransactions(context.Background(), domain.TransactionFilter{Limit: 1000, Offset: -5})
	require.NoError(t, err)
	assert.Equal(t, usecase.MaxPageSize, got.Limit)
	assert.Equal(t, 0, got.Offset)
}
