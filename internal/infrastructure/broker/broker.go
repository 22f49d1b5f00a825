// Package broker opens the settlement queue selected by QUEUE_DRIVER and
// hands out its publisher and consumer.
package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/ledgertx/internal/adapter/queue"
	"github.com/iho/ledgertx/internal/adapter/queue/rabbitmq"
	"github.com/iho/ledgertx/internal/adapter/queue/redisstream"
	"github.com/iho/ledgertx/internal/infrastructure/config"
	"github.com/iho/ledgertx/internal/usecase"
)

// Consumer drives a queue.Handler until its context is cancelled.
type Consumer interface {
	Run(ctx context.Context) error
}

// Broker owns the settlement queue connection.
type Broker struct {
	cfg    *config.Config
	redis  redis.UniversalClient
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	topo   rabbitmq.Topology
	logger zerolog.Logger

	// Publisher sends settlement messages.
	Publisher usecase.SettlementPublisher
}

// Open connects to the configured queue. The redis client is used only
// by the redis driver and is not closed by the broker.
func Open(cfg *config.Config, client redis.UniversalClient, logger zerolog.Logger) (*Broker, error) {
	b := &Broker{cfg: cfg, redis: client, logger: logger}

	switch cfg.QueueDriver {
	case config.QueueDriverRedis:
		b.Publisher = redisstream.NewPublisher(client, cfg.SettlementStream)
	case config.QueueDriverRabbitMQ:
		b.topo = rabbitmq.NewTopology(cfg.RabbitMQQueue)
		conn, ch, err := rabbitmq.Dial(cfg.RabbitMQURL, b.topo)
		if err != nil {
			return nil, err
		}
		b.conn = conn
		b.pubCh = ch
		b.Publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQQueue)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.QueueDriver)
	}

	logger.Info().Str("driver", cfg.QueueDriver).Msg("settlement queue ready")
	return b, nil
}

// Consumer builds the settlement consumer for h.
func (b *Broker) Consumer(h queue.Handler, observer queue.Observer) (Consumer, error) {
	switch b.cfg.QueueDriver {
	case config.QueueDriverRedis:
		return redisstream.NewConsumer(b.redis, h, redisstream.Config{
			Stream:           b.cfg.SettlementStream,
			Group:            b.cfg.SettlementGroup,
			Consumer:         b.cfg.SettlementConsumer,
			DeadLetterStream: b.cfg.SettlementDeadLetterStream,
			Workers:          b.cfg.SettlementWorkers,
			MaxDeliveries:    b.cfg.SettlementMaxDeliveries,
			ClaimIdle:        b.cfg.SettlementClaimIdle,
			Observer:         observer,
			Logger:           b.logger,
		}), nil
	case config.QueueDriverRabbitMQ:
		// Deliveries get their own channel so publishing never waits on them.
		ch, err := b.conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("open consumer channel: %w", err)
		}
		return rabbitmq.NewConsumer(ch, h, rabbitmq.Config{
			Queue:         b.topo.Queue,
			Tag:           b.cfg.SettlementConsumer,
			Workers:       b.cfg.SettlementWorkers,
			MaxDeliveries: b.cfg.SettlementMaxDeliveries,
			Observer:      observer,
			Logger:        b.logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", b.cfg.QueueDriver)
	}
}

// Close releases the AMQP connection, if any.
func (b *Broker) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
