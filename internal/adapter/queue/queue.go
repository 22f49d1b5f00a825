// Package queue holds what the settlement queue adapters share: the
// handler they drive and the rule that turns its result into an
// acknowledgement decision.
package queue

import (
	"context"
	"errors"

	"github.com/iho/ledgertx/internal/domain"
)

// Handler processes one settlement message.
type Handler interface {
	Process(ctx context.Context, msg *domain.Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *domain.Message) error

// Process calls f.
func (f HandlerFunc) Process(ctx context.Context, msg *domain.Message) error {
	return f(ctx, msg)
}

// Disposition is what a consumer does with a message after handling it.
type Disposition int

const (
	// Ack removes the message from the queue.
	Ack Disposition = iota
	// Retry leaves the message for another delivery.
	Retry
	// DeadLetter moves the message aside without retrying.
	DeadLetter
)

func (d Disposition) String() string {
	switch d {
	case Ack:
		return "ack"
	case Retry:
		return "retry"
	case DeadLetter:
		return "dead_letter"
	default:
		return "unknown"
	}
}

// Dead-letter reasons.
const (
	ReasonDecode        = "decode"
	ReasonMaxDeliveries = "max_deliveries"
)

// Classify maps a handler result to a disposition. A recorded FAILED
// status is final. Errors other than decode failures are retried.
func Classify(err error) Disposition {
	switch {
	case err == nil:
		return Ack
	case errors.Is(err, domain.ErrSettlementFailed):
		return Ack
	case errors.Is(err, domain.ErrDecode):
		return DeadLetter
	default:
		return Retry
	}
}

// Decide applies the delivery limit on top of Classify and returns the
// dead-letter reason when the message is given up on.
func Decide(err error, deliveries, maxDeliveries int64) (Disposition, string) {
	d := Classify(err)
	switch {
	case d == DeadLetter:
		return DeadLetter, ReasonDecode
	case d == Retry && maxDeliveries > 0 && deliveries >= maxDeliveries:
		return DeadLetter, ReasonMaxDeliveries
	default:
		return d, ""
	}
}

// Observer receives consumer events. Implementations must be safe for
// concurrent use.
type Observer interface {
	MessageDeadLettered(reason string)
	MessageRedelivered()
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) MessageDeadLettered(string) {}
func (NopObserver) MessageRedelivered()        {}
