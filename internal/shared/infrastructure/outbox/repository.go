package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages. The SQL implementation shares the
// journal connection so Save joins the unit of work that records the command.
type Repository interface {
	Save(ctx context.Context, msg *Message) error

	// GetUnpublished returns up to limit due messages, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string, retryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld purges published messages older than retention and reports
	// how many rows went.
	DeleteOld(ctx context.Context, retention time.Duration) (int64, error)
}
