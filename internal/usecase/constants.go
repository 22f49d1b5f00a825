package usecase

import (
	"context"
	"time"

	"github.com/iho/ledgertx/internal/domain"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// Page sizes for list operations
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, op func() error) error { return op() }

type nopMetrics struct{}

func (nopMetrics) TransactionCreated(bool) {}
func (nopMetrics) EnqueueFailed() {}
func (nopMetrics) SettlementFinished(domain.TransactionStatus, time.Duration) {}
func (nopMetrics) SettlementSkipped() {}
