package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and configures the journal database.
type Config struct {
	// Driver is taken from URL when empty.
	Driver Driver

	// URL is the PostgreSQL connection string,
	// e.g. "postgres://canvas@localhost:5432/canvas".
	URL string

	// SQLitePath is the journal file used with DriverSQLite.
	// Defaults to ~/.canvasbridge/journal.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

type opener func(ctx context.Context, cfg Config) (Connection, error)

// Filled in by the sqlite and postgres packages on import.
var openers = map[Driver]opener{}

// RegisterPostgresDriver registers the PostgreSQL connection factory.
func RegisterPostgresDriver(fn func(ctx context.Context, cfg Config) (Connection, error)) {
	openers[DriverPostgres] = fn
}

// RegisterSQLiteDriver registers the SQLite connection factory.
func RegisterSQLiteDriver(fn func(ctx context.Context, cfg Config) (Connection, error)) {
	openers[DriverSQLite] = fn
}

// NewConnection opens the journal database selected by cfg. Callers import
// the sqlite and postgres packages for their side effects.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	if cfg.Driver == "" {
		cfg.Driver = DetectDriver(cfg.URL)
	}
	open, ok := openers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("database driver %s is not linked in", cfg.Driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath is where the journal lives when SQLITE_PATH is unset.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".canvasbridge", "journal.db")
}

// EnsureDirectory creates the directory holding path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
