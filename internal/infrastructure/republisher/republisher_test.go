package republisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgertx/internal/domain"
)

func TestSweepPublishesStalePending(t *testing.T) {
	source := &stubSource{
		pending: []*domain.Transaction{
			{ID: "tx-1", Status: domain.TransactionStatusPending},
			{ID: "tx-2", Status: domain.TransactionStatusPending, Metadata: map[string]string{domain.MetadataReverseOperation: "true"}},
		},
	}
	enq := &stubEnqueuer{}
	counter := &stubCounter{}
	r := newTestRepublisher(source, enq, counter)

	n, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if n != 2 || len(enq.published) != 2 {
		t.Fatalf("expected two published transactions, got n=%d published=%v", n, enq.published)
	}
	if enq.reversal["tx-1"] || !enq.reversal["tx-2"] {
		t.Fatalf("expected reversal flag only on tx-2, got %v", enq.reversal)
	}
	if counter.total != 2 {
		t.Fatalf("expected counter to record 2, got %d", counter.total)
	}
}

func TestSweepUsesGracePeriodAndBatchSize(t *testing.T) {
	source := &stubSource{}
	r := newTestRepublisher(source, &stubEnqueuer{}, nil)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	if _, err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if want := fixed.Add(-time.Minute); !source.before.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, source.before)
	}
	if source.limit != 10 {
		t.Fatalf("expected batch size 10, got %d", source.limit)
	}
}

func TestSweepContinuesOnPublishError(t *testing.T) {
	source := &stubSource{
		pending: []*domain.Transaction{{ID: "tx-1"}, {ID: "tx-2"}},
	}
	enq := &stubEnqueuer{errorsByID: map[string]error{"tx-1": errors.New("broker down")}}
	counter := &stubCounter{}
	r := newTestRepublisher(source, enq, counter)

	n, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}

	if n != 1 || len(enq.published) != 1 || enq.published[0] != "tx-2" {
		t.Fatalf("expected only tx-2 to be published, got %v", enq.published)
	}
	if counter.total != 1 {
		t.Fatalf("expected counter to record 1, got %d", counter.total)
	}
}

func TestSweepReturnsSourceError(t *testing.T) {
	sourceErr := errors.New("db down")
	r := newTestRepublisher(&stubSource{err: sourceErr}, &stubEnqueuer{}, nil)

	if _, err := r.Sweep(context.Background()); !errors.Is(err, sourceErr) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	r := newTestRepublisher(&stubSource{}, &stubEnqueuer{}, nil)
	r.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("republisher did not stop after cancel")
	}
}

func newTestRepublisher(source *stubSource, enq *stubEnqueuer, counter *stubCounter) *Republisher {
	return New(Config{
		Source:    source,
		Enqueuer:  enq,
		Counter:   counter,
		Logger:    zerolog.Nop(),
		BatchSize: 10,
		Interval:  5 * time.Millisecond,
		After:     time.Minute,
	})
}

type stubSource struct {
	pending []*domain.Transaction
	err     error
	before  time.Time
	limit   int
}

func (s *stubSource) ListPending(_ context.Context, createdBefore time.Time, limit int) ([]*domain.Transaction, error) {
	s.before = createdBefore
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.pending, nil
}

type stubEnqueuer struct {
	published  []string
	reversal   map[string]bool
	errorsByID map[string]error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, t *domain.Transaction, reversal bool) error {
	if err := s.errorsByID[t.ID]; err != nil {
		return err
	}
	if s.reversal == nil {
		s.reversal = make(map[string]bool)
	}
	s.published = append(s.published, t.ID)
	s.reversal[t.ID] = reversal
	return nil
}

type stubCounter struct {
	total int
}

func (s *stubCounter) TransactionsRepublished(n int) {
	if s == nil {
		return
	}
	s.total += n
}
