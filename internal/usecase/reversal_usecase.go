package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/ledgertx/internal/domain"
)

// TransactionSubmitter writes a transaction and enqueues it for settlement.
type TransactionSubmitter interface {
	Submit(ctx context.Context, req domain.TransactionRequest, reversal bool) (*domain.Transaction, error)
}

// ReversalUseCase creates compensating transactions.
type ReversalUseCase struct {
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	submitter       TransactionSubmitter
	logger          zerolog.Logger
}

// NewReversalUseCase creates a new ReversalUseCase.
func NewReversalUseCase(
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	submitter TransactionSubmitter,
	logger zerolog.Logger,
) *ReversalUseCase {
	return &ReversalUseCase{
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		submitter:       submitter,
		logger:          logger.With().Str("component", "reversal").Logger(),
	}
}

// ReverseTransactionInput represents input for reversing a transaction.
type ReverseTransactionInput struct {
	TransactionID string
	Description   string
}

// ReverseTransaction writes and enqueues the reversal of a COMPLETED
// transaction. The original is left untouched.
func (uc *ReversalUseCase) ReverseTransaction(ctx context.Context, input ReverseTransactionInput) (*domain.Transaction, error) {
	original, err := uc.transactionRepo.GetByID(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.GetByTransaction(ctx, original.ID)
	if err != nil {
		return nil, err
	}

	req, err := domain.BuildReversal(original, entries, input.Description)
	if err != nil {
		return nil, err
	}

	reversal, err := uc.submitter.Submit(ctx, req, true)
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("transaction_id", original.ID).
		Str("reversal_id", reversal.ID).
		Msg("reversal created")

	return reversal, nil
}
