package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgertx/internal/domain"
)

// TransactionUseCase validates and records transactions and hands them to
// the settlement queue.
type TransactionUseCase struct {
	txManager       TransactionManager
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	publisher       SettlementPublisher
	validator       *domain.Validator
	idGen           IDGenerator
	metrics         Metrics
	logger          zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	publisher SettlementPublisher,
	validator *domain.Validator,
	idGen IDGenerator,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		publisher:       publisher,
		validator:       validator,
		idGen:           idGen,
		metrics:         nopMetrics{},
		logger:          logger.With().Str("component", "transaction_writer").Logger(),
	}
}

// WithMetrics sets the business metrics sink.
func (uc *TransactionUseCase) WithMetrics(m Metrics) *TransactionUseCase {
	uc.metrics = m
	return uc
}

// WriteTransaction validates req and stores the PENDING transaction with
// all of its entries in one database transaction. Either everything is
// stored or nothing is.
func (uc *TransactionUseCase) WriteTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.Transaction, []*domain.Entry, error) {
	validated, err := uc.validator.Validate(req)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	transactionID := uc.idGen.Generate()

	transaction := &domain.Transaction{
		ID:          transactionID,
		ReferenceID: validated.ReferenceID,
		Date:        now,
		Description: validated.Description,
		Status:      domain.TransactionStatusPending,
		TotalAmount: validated.TotalDebits,
		Currency:    validated.Currency,
		Metadata:    validated.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	entries := make([]*domain.Entry, len(validated.Entries))
	for i, e := range validated.Entries {
		description := e.Description
		if strings.TrimSpace(description) == "" {
			description = validated.Description
		}
		entries[i] = &domain.Entry{
			ID:            uc.idGen.Generate(),
			TransactionID: transactionID,
			AccountID:     e.AccountID,
			Type:          e.Type,
			Amount:        e.Amount,
			Description:   description,
			CreatedAt:     now,
		}
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
		return nil, nil, err
	}

	if err := uc.entryRepo.CreateBatch(ctx, tx, entries); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return transaction, entries, nil
}

// Submit writes req and enqueues the result for settlement.
//
// A failed publish does not undo the write. The transaction stays PENDING
// and is picked up again by the republisher.
func (uc *TransactionUseCase) Submit(ctx context.Context, req domain.TransactionRequest, reversal bool) (*domain.Transaction, error) {
	transaction, _, err := uc.WriteTransaction(ctx, req)
	if err != nil {
		return nil, err
	}

	uc.metrics.TransactionCreated(reversal)

	if err := uc.Enqueue(ctx, transaction, reversal); err != nil {
		uc.metrics.EnqueueFailed()
		uc.logger.Error().
			Err(err).
			Str("transaction_id", transaction.ID).
			Msg("failed to enqueue transaction for settlement")
	}

	return transaction, nil
}

// Enqueue publishes the settlement message for t.
func (uc *TransactionUseCase) Enqueue(ctx context.Context, t *domain.Transaction, reversal bool) error {
	msg, err := domain.NewSettlementMessage(t, reversal)
	if err != nil {
		return err
	}

	if err := uc.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish settlement message: %w", err)
	}

	uc.logger.Debug().
		Str("transaction_id", t.ID).
		Bool("reversal", reversal).
		Msg("transaction enqueued for settlement")

	return nil
}

// CreateTransaction writes and enqueues a new transaction.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.Transaction, error) {
	return uc.Submit(ctx, req, false)
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// GetTransactionEntries returns the entries of a transaction.
func (uc *TransactionUseCase) GetTransactionEntries(ctx context.Context, id string) ([]*domain.Entry, error) {
	if _, err := uc.transactionRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.entryRepo.GetByTransaction(ctx, id)
}

// ListTransactions lists transactions matching filter.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	filter.Limit = pageSize(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.transactionRepo.List(ctx, filter)
}
