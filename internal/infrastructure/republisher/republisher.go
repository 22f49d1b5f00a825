package republisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgertx/internal/domain"
)

// PendingSource lists transactions still waiting for settlement.
type PendingSource interface {
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Transaction, error)
}

// Enqueuer publishes the settlement message of a transaction.
type Enqueuer interface {
	Enqueue(ctx context.Context, t *domain.Transaction, reversal bool) error
}

// Counter receives the number of re-sent messages per sweep.
type Counter interface {
	TransactionsRepublished(n int)
}

// Republisher re-enqueues transactions that stayed PENDING longer than the
// grace period. It covers a write that committed while its publish failed.
// Settlement skips terminal transactions, so a duplicate message is harmless.
type Republisher struct {
	source    PendingSource
	enqueuer  Enqueuer
	counter   Counter
	logger    zerolog.Logger
	batchSize int
	interval  time.Duration
	after     time.Duration
	now       func() time.Time
}

// Config for Republisher.
type Config struct {
	Source    PendingSource
	Enqueuer  Enqueuer
	Counter   Counter
	Logger    zerolog.Logger
	BatchSize int           // Number of transactions to fetch per sweep
	Interval  time.Duration // Polling interval
	After     time.Duration // Minimum age of a PENDING transaction before it is re-sent
}

// New creates a new Republisher.
func New(cfg Config) *Republisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.After == 0 {
		cfg.After = 2 * time.Minute
	}

	return &Republisher{
		source:    cfg.Source,
		enqueuer:  cfg.Enqueuer,
		counter:   cfg.Counter,
		logger:    cfg.Logger.With().Str("component", "republisher").Logger(),
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		after:     cfg.After,
		now:       time.Now,
	}
}

// Start runs sweeps until the context is cancelled.
func (r *Republisher) Start(ctx context.Context) error {
	r.logger.Info().
		Int("batch_size", r.batchSize).
		Dur("interval", r.interval).
		Dur("after", r.after).
		Msg("republisher started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error().Err(err).Msg("republish sweep failed")
		}

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("republisher shutting down")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep re-sends one batch of stale PENDING transactions and returns how
// many were published.
func (r *Republisher) Sweep(ctx context.Context) (int, error) {
	pending, err := r.source.ListPending(ctx, r.now().Add(-r.after), r.batchSize)
	if err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		return 0, nil
	}

	r.logger.Info().Int("count", len(pending)).Msg("republishing pending transactions")

	published := 0
	for _, t := range pending {
		if err := r.enqueuer.Enqueue(ctx, t, t.IsReversal()); err != nil {
			r.logger.Error().
				Err(err).
				Str("transaction_id", t.ID).
				Msg("failed to republish transaction")
			// Continue with the rest of the batch
			continue
		}
		published++
	}

	if r.counter != nil && published > 0 {
		r.counter.TransactionsRepublished(published)
	}

	return published, nil
}
