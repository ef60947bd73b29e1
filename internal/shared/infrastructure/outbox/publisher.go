package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
)

// Publisher implements eventbus.Publisher by writing to the outbox. A
// Processor relays what it stores.
type Publisher struct {
	repo Repository
}

// NewPublisher creates a publisher that stores messages in repo.
func NewPublisher(repo Repository) *Publisher {
	return &Publisher{repo: repo}
}

// Publish implements eventbus.Publisher.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var head struct {
		EventID    uuid.UUID `json:"event_id"`
		OccurredAt time.Time `json:"occurred_at"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return fmt.Errorf("outbox payload is not a command event: %w", err)
	}
	if head.EventID == uuid.Nil {
		head.EventID = uuid.New()
	}
	if head.OccurredAt.IsZero() {
		head.OccurredAt = time.Now()
	}
	return p.repo.Save(ctx, &Message{
		EventID:    head.EventID,
		RoutingKey: routingKey,
		Payload:    payload,
		CreatedAt:  head.OccurredAt,
	})
}

// Close implements eventbus.Publisher. The repository's connection is owned
// by the caller.
func (p *Publisher) Close() error {
	return nil
}

var _ eventbus.Publisher = (*Publisher)(nil)
