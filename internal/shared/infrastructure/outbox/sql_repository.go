package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/database"
)

// timeLayout sorts lexically in the same order as the instants it encodes.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const (
	insertMessage = `INSERT INTO event_outbox (event_id, routing_key, payload, created_at)
	VALUES (?, ?, ?, ?) RETURNING id`

	selectUnpublished = `SELECT id, event_id, routing_key, payload, created_at, retry_count, next_retry_at, last_error
	FROM event_outbox
	WHERE published_at IS NULL AND dead_lettered_at IS NULL
	  AND (next_retry_at IS NULL OR next_retry_at <= ?)
	ORDER BY id
	LIMIT ?`

	markPublished = `UPDATE event_outbox SET published_at = ? WHERE id = ?`

	markFailed = `UPDATE event_outbox
	SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
	WHERE id = ?`

	markDead = `UPDATE event_outbox
	SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ?
	WHERE id = ?`

	deleteOld = `DELETE FROM event_outbox WHERE published_at IS NOT NULL AND published_at < ?`
)

// SQLRepository stores messages in the event_outbox table of the journal
// database. The schema is created by migrations.Run.
type SQLRepository struct {
	conn database.Connection
}

// NewSQLRepository creates a repository on conn.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

func (r *SQLRepository) query(q string) string {
	return database.Rebind(r.conn.Driver(), q)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Save implements Repository. Inside a database.UnitOfWork the message is
// written in the caller's transaction.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, r.query(insertMessage),
		msg.EventID.String(), msg.RoutingKey, string(msg.Payload), formatTime(msg.CreatedAt))
	if err := row.Scan(&msg.ID); err != nil {
		return fmt.Errorf("save outbox message %s: %w", msg.EventID, err)
	}
	return nil
}

// GetUnpublished implements Repository.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := r.conn.Query(ctx, r.query(selectUnpublished), formatTime(time.Now()), limit)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// MarkPublished implements Repository.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, r.query(markPublished), formatTime(time.Now()), id)
	return err
}

// MarkFailed implements Repository.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.conn.Exec(ctx, r.query(markFailed), errMsg, formatTime(nextRetryAt), id)
	return err
}

// MarkDead implements Repository.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.conn.Exec(ctx, r.query(markDead), formatTime(time.Now()), reason, id)
	return err
}

// DeleteOld implements Repository.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.conn.Exec(ctx, r.query(deleteOld), formatTime(time.Now().Add(-olderThan)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg                Message
		eventID, payload   string
		created            string
		nextRetry, lastErr sql.NullString
	)
	if err := row.Scan(&msg.ID, &eventID, &msg.RoutingKey, &payload, &created, &msg.RetryCount, &nextRetry, &lastErr); err != nil {
		return nil, fmt.Errorf("scan outbox message: %w", err)
	}
	var err error
	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("outbox message %d event id: %w", msg.ID, err)
	}
	if msg.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("outbox message %d time: %w", msg.ID, err)
	}
	msg.Payload = json.RawMessage(payload)
	if nextRetry.Valid {
		if t, err := time.Parse(timeLayout, nextRetry.String); err == nil {
			msg.NextRetryAt = &t
		}
	}
	if lastErr.Valid {
		msg.LastError = &lastErr.String
	}
	return &msg, nil
}
