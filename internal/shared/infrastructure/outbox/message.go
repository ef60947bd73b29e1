// Package outbox stores command events next to the journal and relays them to
// the broker from a background processor, so a broker outage delays events
// instead of dropping them.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
)

// Message is one command event row in the outbox table. A message is due
// while PublishedAt and DeadLetteredAt are nil and NextRetryAt has passed.
type Message struct {
	ID         int64
	EventID    uuid.UUID
	RoutingKey string
	Payload    json.RawMessage
	CreatedAt  time.Time

	PublishedAt *time.Time

	RetryCount  int
	NextRetryAt *time.Time
	LastError   *string

	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage wraps event for storage. The row id is assigned by Save.
func NewMessage(event *eventbus.CommandEvent) (*Message, error) {
	payload, err := event.Marshal()
	if err != nil {
		return nil, err
	}
	return &Message{
		EventID:    event.EventID,
		RoutingKey: event.RoutingKey,
		Payload:    payload,
		CreatedAt:  event.OccurredAt,
	}, nil
}

// event decodes the payload for log fields. An undecodable payload still
// gets relayed, so it yields an empty event instead of an error.
func (m *Message) event() eventbus.CommandEvent {
	e, err := eventbus.DecodeEvent(m.RoutingKey, m.Payload)
	if err != nil {
		return eventbus.CommandEvent{RoutingKey: m.RoutingKey}
	}
	return *e
}
