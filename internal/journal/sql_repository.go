package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/database"
)

const insertEntry = `INSERT INTO command_journal
	(id, invocation_id, context_id, command, action, args, description, result, error_kind, error, duration_ms, occurred_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectEntries = `SELECT id, invocation_id, context_id, command, action, args, description, result, error_kind, error, duration_ms, occurred_at
	FROM command_journal`

// SQLRepository stores entries in the command_journal table of a SQLite or
// PostgreSQL database.
type SQLRepository struct {
	conn database.Connection
	uow  *database.UnitOfWork
}

// NewSQLRepository creates a repository on conn. The schema must exist; see migrations.Run.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, uow: database.NewUnitOfWork(conn)}
}

func (r *SQLRepository) query(q string) string {
	return database.Rebind(r.conn.Driver(), q)
}

// Append writes entries in one transaction.
func (r *SQLRepository) Append(ctx context.Context, entries ...*Entry) error {
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return err
		}
	}
	return r.uow.Do(ctx, func(ctx context.Context) error {
		exec := database.ExecutorFromContext(ctx, r.conn)
		for _, e := range entries {
			args, err := json.Marshal(e.Args)
			if err != nil {
				return err
			}
			_, err = exec.Exec(ctx, r.query(insertEntry),
				e.ID.String(), e.InvocationID, e.ContextID, e.Command, string(e.Action), string(args),
				e.Description, e.Result, e.ErrorKind, e.Error, e.Duration.Milliseconds(),
				e.OccurredAt.UTC().Format(time.RFC3339Nano),
			)
			if err != nil {
				return fmt.Errorf("append journal entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

// List implements Repository.
func (r *SQLRepository) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	var (
		where []string
		args  []any
	)
	if filter.Command != "" {
		where = append(where, "command = ?")
		args = append(args, filter.Command)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.InvocationID != "" {
		where = append(where, "invocation_id = ?")
		args = append(args, filter.InvocationID)
	}
	q := selectEntries
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq DESC"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, r.query(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func scanEntry(row database.Row) (*Entry, error) {
	var (
		e                Entry
		id, action, args string
		occurred         string
		durationMS       int64
	)
	err := row.Scan(&id, &e.InvocationID, &e.ContextID, &e.Command, &action, &args,
		&e.Description, &e.Result, &e.ErrorKind, &e.Error, &durationMS, &occurred)
	if err != nil {
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("journal entry id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(args), &e.Args); err != nil {
		return nil, fmt.Errorf("journal entry %s args: %w", id, err)
	}
	if e.OccurredAt, err = time.Parse(time.RFC3339Nano, occurred); err != nil {
		return nil, fmt.Errorf("journal entry %s time: %w", id, err)
	}
	e.Action = Action(action)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	return &e, nil
}
