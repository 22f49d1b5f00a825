package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/ledgertx/internal/adapter/queue"
	"github.com/iho/ledgertx/internal/domain"
)

// deliveryCountHeader is set by quorum queues on redelivered messages and
// counts earlier deliveries.
const deliveryCountHeader = "x-delivery-count"

// Config for Consumer.
type Config struct {
	Queue         string
	Tag           string
	Workers       int
	MaxDeliveries int64
	RetryDelay    time.Duration // Wait before requeueing a failed message
	Observer      queue.Observer
	Logger        zerolog.Logger
}

// Consumer reads settlement messages with manual acknowledgement.
// Retried messages are requeued; dead-lettered ones are rejected into the
// dead-letter exchange.
type Consumer struct {
	ch       Channel
	handler  queue.Handler
	cfg      Config
	observer queue.Observer
	logger   zerolog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(ch Channel, handler queue.Handler, cfg Config) *Consumer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	observer := cfg.Observer
	if observer == nil {
		observer = queue.NopObserver{}
	}

	return &Consumer{
		ch:       ch,
		handler:  handler,
		cfg:      cfg,
		observer: observer,
		logger: cfg.Logger.With().
			Str("component", "rabbitmq_consumer").
			Str("queue", cfg.Queue).
			Logger(),
	}
}

// Run consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.cfg.Workers, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := c.ch.Consume(c.cfg.Queue, c.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}

	c.logger.Info().
		Int("workers", c.cfg.Workers).
		Int64("max_deliveries", c.cfg.MaxDeliveries).
		Msg("settlement consumer started")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case d, ok := <-deliveries:
					if !ok {
						return ErrChannelClosed
					}
					c.handle(gctx, d)
				}
			}
		})
	}

	err = g.Wait()
	c.logger.Info().Err(err).Msg("settlement consumer stopped")
	return err
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	msg := toMessage(d)
	if msg.DeliveryCount > 1 || d.Redelivered {
		c.observer.MessageRedelivered()
	}

	err := c.handler.Process(ctx, msg)
	disposition, reason := queue.Decide(err, msg.DeliveryCount, c.cfg.MaxDeliveries)

	log := c.logger.With().
		Str("message_id", msg.ID).
		Int64("delivery_count", msg.DeliveryCount).
		Str("disposition", disposition.String()).
		Logger()

	switch disposition {
	case queue.Ack:
		if err := d.Ack(false); err != nil {
			log.Error().Err(err).Msg("failed to acknowledge message")
		}
	case queue.Retry:
		log.Warn().Err(err).Dur("retry_delay", c.cfg.RetryDelay).Msg("settlement will be retried")
		select {
		case <-ctx.Done():
		case <-time.After(c.cfg.RetryDelay):
		}
		if err := d.Nack(false, true); err != nil {
			log.Error().Err(err).Msg("failed to requeue message")
		}
	case queue.DeadLetter:
		if err := d.Nack(false, false); err != nil {
			log.Error().Err(err).Msg("failed to dead-letter message")
			return
		}
		c.observer.MessageDeadLettered(reason)
		log.Error().Err(err).Str("reason", reason).Msg("message dead-lettered")
	}
}

func toMessage(d amqp.Delivery) *domain.Message {
	msg := &domain.Message{
		ID:            d.MessageId,
		Body:          d.Body,
		Attributes:    make(map[string]string, len(d.Headers)),
		DeliveryCount: 1,
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%s/%d", d.ConsumerTag, d.DeliveryTag)
	}

	for k, v := range d.Headers {
		if k == deliveryCountHeader {
			msg.DeliveryCount = headerInt(v) + 1
			continue
		}
		if s, ok := v.(string); ok {
			msg.Attributes[k] = s
		}
	}

	return msg
}

func headerInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case int16:
		return int64(n)
	case int8:
		return int64(n)
	default:
		return 0
	}
}
