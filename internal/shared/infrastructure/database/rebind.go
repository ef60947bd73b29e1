package database

import (
	"strconv"
	"strings"
)

// Rebind rewrites the '?' placeholders of query into the form d expects.
// SQLite takes '?' as is; PostgreSQL needs numbered $n parameters.
func Rebind(d Driver, query string) string {
	if d != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
