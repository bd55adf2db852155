// Package bus provides the event sink the engine publishes decision
// outcomes and escalations to. Two backends are supported: an in-process
// channel bus and NATS.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Standard topics for the decision pipeline.
const (
	TopicDecisionCompleted = "invoisaic.decision.completed"
	TopicEscalation        = "invoisaic.decision.escalated"
	TopicCustomerNotify    = "invoisaic.customer.notify"
)

// Event is a published message.
type Event struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Payload   []byte `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

// Handler processes a delivered event. Handlers must not block for long;
// slow work belongs in the handler's own goroutine.
type Handler func(ctx context.Context, ev Event)

// Bus is the publish/subscribe boundary. Publish failures are the
// caller's to log; they never carry decision-blocking semantics.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, h Handler) (unsubscribe func(), err error)
	Close() error
}

// newEvent builds an Event with a fresh ID and current timestamp.
func newEvent(topic string, payload []byte) Event {
	return Event{
		ID:        uuid.NewString(),
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}
