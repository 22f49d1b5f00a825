// Package rabbitmq carries settlement messages over an AMQP quorum queue
// with a dead-letter exchange.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrChannelClosed is returned when the broker closes the delivery channel.
var ErrChannelClosed = errors.New("amqp delivery channel closed")

// Channel is the subset of *amqp.Channel the settlement queue uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Topology names the settlement queue and its dead-letter pair.
type Topology struct {
	Queue           string
	DeadLetterQueue string
	DeadLetterExch  string
}

// NewTopology derives the dead-letter names from queue.
func NewTopology(queue string) Topology {
	return Topology{
		Queue:           queue,
		DeadLetterQueue: queue + ".dlq",
		DeadLetterExch:  queue + ".dlx",
	}
}

// queueArgs makes the settlement queue a quorum queue, which tracks
// x-delivery-count, and routes rejected messages to the dead-letter exchange.
func (t Topology) queueArgs() amqp.Table {
	return amqp.Table{
		"x-queue-type":              "quorum",
		"x-dead-letter-exchange":    t.DeadLetterExch,
		"x-dead-letter-routing-key": t.Queue,
	}
}

// Declare creates the dead-letter exchange and queue, then the settlement
// queue. It is safe to call on every start.
func (t Topology) Declare(ch Channel) error {
	if err := ch.ExchangeDeclare(t.DeadLetterExch, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlx exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlq queue: %w", err)
	}

	if err := ch.QueueBind(t.DeadLetterQueue, t.Queue, t.DeadLetterExch, false, nil); err != nil {
		return fmt.Errorf("bind dlq to dlx: %w", err)
	}

	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, t.queueArgs()); err != nil {
		return fmt.Errorf("declare settlement queue: %w", err)
	}

	return nil
}

// Dial opens a connection and a channel with the settlement topology
// declared on it.
func Dial(url string, t Topology) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if err := t.Declare(ch); err != nil {
		conn.Close()
		return nil, nil, err
	}

	return conn, ch, nil
}
