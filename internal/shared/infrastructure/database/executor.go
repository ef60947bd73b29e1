package database

import "context"

// Row is satisfied by *sql.Row and pgx.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set. *sql.Rows satisfies it as is.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports what a statement changed; sql.Result satisfies it.
// Inserts that need the new key use RETURNING, which both drivers support.
type Result interface {
	RowsAffected() (int64, error)
}

// Executor runs statements on a connection or inside a transaction. The
// journal and outbox repositories only ever see this interface, so the same
// SQL (with '?' placeholders passed through Rebind) runs on both drivers.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor that must be committed or rolled back.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open journal database.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Ping(ctx context.Context) error
	Driver() Driver
	Close() error
}
