// Package redisstream carries settlement messages over a Redis stream read
// by a consumer group.
package redisstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/iho/ledgertx/internal/domain"
)

// Stream entry fields. Attributes are stored one field each under
// attributePrefix.
const (
	fieldBody       = "body"
	attributePrefix = "attr:"

	fieldReason     = "dead_letter_reason"
	fieldOriginalID = "original_id"
)

// Publisher implements usecase.SettlementPublisher with XADD.
type Publisher struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewPublisher creates a publisher appending to stream.
func NewPublisher(client redis.UniversalClient, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// WithMaxLen caps the stream at roughly n entries. Zero leaves it unbounded.
func (p *Publisher) WithMaxLen(n int64) *Publisher {
	p.maxLen = n
	return p
}

// Publish appends msg to the stream.
func (p *Publisher) Publish(ctx context.Context, msg *domain.Message) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: encodeFields(msg),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.stream, err)
	}
	return nil
}

func encodeFields(msg *domain.Message) map[string]any {
	values := make(map[string]any, len(msg.Attributes)+1)
	values[fieldBody] = string(msg.Body)
	for k, v := range msg.Attributes {
		values[attributePrefix+k] = v
	}
	return values
}

func decodeFields(x redis.XMessage) *domain.Message {
	msg := &domain.Message{ID: x.ID, Attributes: map[string]string{}}
	for k, v := range x.Values {
		s, _ := v.(string)
		switch {
		case k == fieldBody:
			msg.Body = []byte(s)
		case strings.HasPrefix(k, attributePrefix):
			msg.Attributes[strings.TrimPrefix(k, attributePrefix)] = s
		}
	}
	return msg
}
