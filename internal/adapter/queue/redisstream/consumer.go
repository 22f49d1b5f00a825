package redisstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/ledgertx/internal/adapter/queue"
)

// Config for Consumer.
type Config struct {
	Stream           string
	Group            string
	Consumer         string // Name of this consumer inside the group
	DeadLetterStream string
	Workers          int
	MaxDeliveries    int64
	ClaimIdle        time.Duration // Pending entries idle this long are taken over
	Block            time.Duration // XREADGROUP block time
	BatchSize        int64
	Observer         queue.Observer
	Logger           zerolog.Logger
}

// Consumer reads settlement messages through a consumer group and hands
// them to a pool of workers. Entries left unacknowledged are claimed again
// after ClaimIdle, so a failed settlement is redelivered until it reaches
// MaxDeliveries.
type Consumer struct {
	client   redis.UniversalClient
	handler  queue.Handler
	cfg      Config
	observer queue.Observer
	logger   zerolog.Logger
}

type delivery struct {
	entry   redis.XMessage
	claimed bool
}

// NewConsumer creates a Consumer.
func NewConsumer(client redis.UniversalClient, handler queue.Handler, cfg Config) *Consumer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = time.Minute
	}
	if cfg.Block <= 0 {
		cfg.Block = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = int64(cfg.Workers) * 2
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "settlement-worker"
	}
	observer := cfg.Observer
	if observer == nil {
		observer = queue.NopObserver{}
	}

	return &Consumer{
		client:   client,
		handler:  handler,
		cfg:      cfg,
		observer: observer,
		logger: cfg.Logger.With().
			Str("component", "redisstream_consumer").
			Str("stream", cfg.Stream).
			Str("consumer", cfg.Consumer).
			Logger(),
	}
}

// EnsureGroup creates the stream and consumer group if they do not exist.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.cfg.Group, err)
	}
	return nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info().
		Int("workers", c.cfg.Workers).
		Int64("max_deliveries", c.cfg.MaxDeliveries).
		Dur("claim_idle", c.cfg.ClaimIdle).
		Msg("settlement consumer started")

	deliveries := make(chan delivery)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(deliveries)
		return c.fetchLoop(gctx, deliveries)
	})

	for i := 0; i < c.cfg.Workers; i++ {
		g.Go(func() error {
			for d := range deliveries {
				c.handle(gctx, d)
			}
			return nil
		})
	}

	err := g.Wait()
	c.logger.Info().Msg("settlement consumer stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Consumer) fetchLoop(ctx context.Context, out chan<- delivery) error {
	lastClaim := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if time.Since(lastClaim) >= c.cfg.ClaimIdle {
			lastClaim = time.Now()
			claimed, err := c.claim(ctx, c.cfg.ClaimIdle)
			if err != nil {
				c.logger.Error().Err(err).Msg("failed to claim idle messages")
			}
			if !dispatch(ctx, out, claimed) {
				return ctx.Err()
			}
		}

		fresh, err := c.read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).Msg("failed to read settlement stream")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if !dispatch(ctx, out, fresh) {
			return ctx.Err()
		}
	}
}

func dispatch(ctx context.Context, out chan<- delivery, ds []delivery) bool {
	for _, d := range ds {
		select {
		case out <- d:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// read fetches entries never delivered to the group.
func (c *Consumer) read(ctx context.Context) ([]delivery, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []delivery
	for _, s := range streams {
		for _, m := range s.Messages {
			out = append(out, delivery{entry: m})
		}
	}
	return out, nil
}

// claim takes over pending entries idle for at least minIdle.
func (c *Consumer) claim(ctx context.Context, minIdle time.Duration) ([]delivery, error) {
	var out []delivery
	start := "0-0"

	for {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			MinIdle:  minIdle,
			Start:    start,
			Count:    c.cfg.BatchSize,
		}).Result()
		if err != nil {
			return out, err
		}
		for _, m := range msgs {
			out = append(out, delivery{entry: m, claimed: true})
		}
		if next == "0-0" || next == "" || len(msgs) == 0 {
			return out, nil
		}
		start = next
	}
}

// deliveryCount asks the group how often id has been delivered.
func (c *Consumer) deliveryCount(ctx context.Context, id string) int64 {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 1
	}
	return pending[0].RetryCount
}

func (c *Consumer) handle(ctx context.Context, d delivery) {
	msg := decodeFields(d.entry)
	msg.DeliveryCount = 1
	if d.claimed {
		msg.DeliveryCount = c.deliveryCount(ctx, msg.ID)
		c.observer.MessageRedelivered()
	}

	err := c.handler.Process(ctx, msg)
	disposition, reason := queue.Decide(err, msg.DeliveryCount, c.cfg.MaxDeliveries)

	// The outcome is recorded even when shutdown began mid-settlement.
	ctx = context.WithoutCancel(ctx)

	log := c.logger.With().
		Str("message_id", msg.ID).
		Int64("delivery_count", msg.DeliveryCount).
		Str("disposition", disposition.String()).
		Logger()

	switch disposition {
	case queue.Ack:
		if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
			log.Error().Err(err).Msg("failed to acknowledge message")
		}
	case queue.Retry:
		log.Warn().Err(err).Msg("settlement will be retried")
	case queue.DeadLetter:
		if dlqErr := c.deadLetter(ctx, d.entry, reason); dlqErr != nil {
			log.Error().Err(dlqErr).Msg("failed to dead-letter message")
			return
		}
		c.observer.MessageDeadLettered(reason)
		log.Error().Err(err).Str("reason", reason).Msg("message dead-lettered")
	}
}

// deadLetter copies the entry to the dead-letter stream and acknowledges
// the original in one MULTI.
func (c *Consumer) deadLetter(ctx context.Context, entry redis.XMessage, reason string) error {
	values := make(map[string]any, len(entry.Values)+2)
	for k, v := range entry.Values {
		values[k] = v
	}
	values[fieldReason] = reason
	values[fieldOriginalID] = entry.ID

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.DeadLetterStream, Values: values})
		pipe.XAck(ctx, c.cfg.Stream, c.cfg.Group, entry.ID)
		return nil
	})
	return err
}
