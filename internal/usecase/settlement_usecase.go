package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgertx/internal/domain"
)

// SettlementUseCase applies the entries of a PENDING transaction to
// account balances and records the outcome.
//
// Process returns nil when the message is finished with, an error wrapping
// domain.ErrSettlementFailed when the transaction was marked FAILED, an
// error wrapping domain.ErrDecode for messages that can never succeed, and
// any other error when the message should be delivered again.
type SettlementUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	retrier         Retrier
	guard           SettlementGuard
	metrics         Metrics
	atomic          bool
	logger          zerolog.Logger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	logger zerolog.Logger,
) *SettlementUseCase {
	return &SettlementUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		retrier:         noRetry{},
		metrics:         nopMetrics{},
		logger:          logger.With().Str("component", "settlement").Logger(),
	}
}

// WithRetrier retries balance writes that lose an optimistic version race.
func (uc *SettlementUseCase) WithRetrier(r Retrier) *SettlementUseCase {
	uc.retrier = r
	return uc
}

// WithGuard serializes concurrent deliveries of the same transaction.
func (uc *SettlementUseCase) WithGuard(g SettlementGuard) *SettlementUseCase {
	uc.guard = g
	return uc
}

// WithMetrics sets the business metrics sink.
func (uc *SettlementUseCase) WithMetrics(m Metrics) *SettlementUseCase {
	uc.metrics = m
	return uc
}

// WithAtomicBalances applies all balance changes and the status update in a
// single database transaction with the accounts locked.
func (uc *SettlementUseCase) WithAtomicBalances(enabled bool) *SettlementUseCase {
	uc.atomic = enabled
	return uc
}

// Process settles the transaction carried by msg.
func (uc *SettlementUseCase) Process(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	payload, err := domain.DecodeSettlement(msg.Body)
	if err != nil {
		uc.logger.Error().Err(err).Str("message_id", msg.ID).Msg("failed to decode settlement message")
		return err
	}

	log := uc.logger.With().
		Str("transaction_id", payload.ID).
		Str("message_id", msg.ID).
		Int64("delivery", msg.DeliveryCount).
		Logger()

	if uc.guard != nil {
		acquired, err := uc.guard.TryLock(ctx, payload.ID)
		if err != nil {
			return fmt.Errorf("acquire settlement lock: %w", err)
		}
		if !acquired {
			log.Debug().Msg("settlement already in progress on another worker")
			return domain.ErrSettlementInProgress
		}
		defer func() {
			if err := uc.guard.Unlock(context.WithoutCancel(ctx), payload.ID); err != nil {
				log.Warn().Err(err).Msg("failed to release settlement lock")
			}
		}()
	}

	current, err := uc.transactionRepo.GetByID(ctx, payload.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load transaction for settlement")
		return err
	}

	if current.Status.IsTerminal() {
		log.Info().Str("status", string(current.Status)).Msg("transaction already settled, skipping duplicate delivery")
		uc.metrics.SettlementSkipped()
		return nil
	}

	if err := uc.settle(ctx, current, log); err != nil {
		// Applied entries are recorded, so an interrupted settlement resumes
		// on the next delivery instead of failing the transaction.
		if ctx.Err() != nil {
			log.Warn().Err(err).Msg("settlement interrupted, leaving transaction pending")
			return err
		}
		return uc.recordFailure(ctx, current, err, start, log)
	}

	uc.metrics.SettlementFinished(domain.TransactionStatusCompleted, time.Since(start))
	log.Info().Msg("transaction settled")

	return nil
}

func (uc *SettlementUseCase) settle(ctx context.Context, t *domain.Transaction, log zerolog.Logger) error {
	entries, err := uc.entryRepo.GetByTransaction(ctx, t.ID)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		log.Warn().Msg("transaction has no entries, completing without balance changes")
	} else {
		log.Info().Int("entries", len(entries)).Msg("settling transaction")
	}

	if uc.atomic {
		return uc.settleAtomically(ctx, t, entries, log)
	}

	for _, entry := range entries {
		if entry.Applied() {
			log.Debug().Str("entry_id", entry.ID).Msg("entry already applied")
			continue
		}

		applied, err := uc.applyEntry(ctx, entry)
		if err != nil {
			return err
		}
		if !applied {
			log.Debug().Str("entry_id", entry.ID).Msg("entry already applied")
			continue
		}
		log.Debug().
			Str("entry_id", entry.ID).
			Str("account_id", entry.AccountID).
			Str("entry_type", string(entry.Type)).
			Str("delta", entry.SignedAmount().String()).
			Msg("entry applied")
	}

	return uc.transactionRepo.UpdateStatus(ctx, t.ID, domain.TransactionStatusCompleted, time.Now().UTC())
}

// applyEntry marks the entry applied and moves its account balance in one
// database transaction. It re-reads the account on every attempt so a retry
// after a lost version race builds on the winner's balance. It returns false
// when another delivery already applied the entry.
func (uc *SettlementUseCase) applyEntry(ctx context.Context, entry *domain.Entry) (bool, error) {
	applied := false

	err := uc.retrier.Retry(ctx, func() error {
		account, err := uc.accountRepo.GetByID(ctx, entry.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, entry.AccountID)
			}
			return err
		}

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(context.WithoutCancel(ctx))

		now := time.Now().UTC()
		marked, err := uc.entryRepo.MarkApplied(ctx, tx, entry.ID, now)
		if err != nil {
			return err
		}
		if !marked {
			return nil
		}

		if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, account.ApplyEntry(entry), account.Version, now); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
		applied = true
		return nil
	})

	return applied, err
}

func (uc *SettlementUseCase) settleAtomically(ctx context.Context, t *domain.Transaction, entries []*domain.Entry, log zerolog.Logger) error {
	pending := make([]*domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Applied() {
			log.Debug().Str("entry_id", e.ID).Msg("entry already applied")
			continue
		}
		pending = append(pending, e)
	}

	accountIDs := collectAccountIDs(pending)
	sort.Strings(accountIDs)

	return uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(context.WithoutCancel(ctx))

		accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, accountIDs)
		if err != nil {
			return err
		}

		accountMap := make(map[string]*domain.Account, len(accounts))
		for _, acc := range accounts {
			accountMap[acc.ID] = acc
		}

		now := time.Now().UTC()
		for _, entry := range pending {
			account, ok := accountMap[entry.AccountID]
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, entry.AccountID)
			}
			marked, err := uc.entryRepo.MarkApplied(ctx, tx, entry.ID, now)
			if err != nil {
				return err
			}
			if marked {
				account.Balance = account.ApplyEntry(entry)
			}
		}

		for _, id := range accountIDs {
			if err := uc.accountRepo.UpdateBalanceTx(ctx, tx, id, accountMap[id].Balance, now); err != nil {
				return err
			}
		}

		if err := uc.transactionRepo.UpdateStatusTx(ctx, tx, t.ID, domain.TransactionStatusCompleted, now); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

// recordFailure marks the transaction FAILED. The write survives shutdown
// of the caller. If it fails anyway the original cause is returned
// unwrapped so the message is delivered again; entries applied so far are
// not applied twice.
func (uc *SettlementUseCase) recordFailure(ctx context.Context, t *domain.Transaction, cause error, start time.Time, log zerolog.Logger) error {
	log.Error().Err(cause).Msg("settlement failed")

	err := uc.transactionRepo.UpdateStatus(context.WithoutCancel(ctx), t.ID, domain.TransactionStatusFailed, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("failed to record FAILED status")
		return errors.Join(cause, err)
	}

	uc.metrics.SettlementFinished(domain.TransactionStatusFailed, time.Since(start))

	return fmt.Errorf("%w: transaction %s: %w", domain.ErrSettlementFailed, t.ID, cause)
}

func collectAccountIDs(entries []*domain.Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.AccountID]; ok {
			continue
		}
		seen[e.AccountID] = struct{}{}
		ids = append(ids, e.AccountID)
	}
	return ids
}
