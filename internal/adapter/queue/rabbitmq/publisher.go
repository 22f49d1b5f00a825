package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iho/ledgertx/internal/domain"
)

// Publisher implements usecase.SettlementPublisher on the default exchange.
type Publisher struct {
	ch    Channel
	queue string
	now   func() time.Time
}

// NewPublisher creates a publisher routing to queue.
func NewPublisher(ch Channel, queue string) *Publisher {
	return &Publisher{ch: ch, queue: queue, now: time.Now}
}

// Publish sends msg as a persistent message. Attributes travel as headers.
func (p *Publisher) Publish(ctx context.Context, msg *domain.Message) error {
	headers := make(amqp.Table, len(msg.Attributes))
	for k, v := range msg.Attributes {
		headers[k] = v
	}

	err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.Attributes[domain.AttributeTransactionID],
		Timestamp:    p.now().UTC(),
		Headers:      headers,
		Body:         msg.Body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}
