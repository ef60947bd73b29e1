package database

import (
	"fmt"
	"strings"
)

// Driver names the journal backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

func (d Driver) String() string {
	return string(d)
}

// ParseDriver maps a DATABASE_DRIVER value to a Driver. Empty and "auto"
// return the empty Driver, which NewConnection resolves from the URL.
func ParseDriver(name string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(name))); d {
	case "", "auto":
		return "", nil
	case DriverSQLite, DriverPostgres:
		return d, nil
	case "postgresql", "pgx":
		return DriverPostgres, nil
	case "sqlite3":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// DetectDriver picks the backend for a DATABASE_URL. Only postgres URLs
// select PostgreSQL; anything else, including no URL, keeps the journal in
// a local SQLite file.
func DetectDriver(url string) Driver {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}
