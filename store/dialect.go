package store

import (
	"fmt"
	"strings"
	"time"
)

type Dialect interface {
	Now() string
	// Upsert returns the conflict clause that overwrites cols on a key clash.
	Upsert(key string, cols ...string) string
}

type sqliteDialect struct{}

func (d sqliteDialect) Now() string { return "datetime('now','localtime')" }
func (d sqliteDialect) Upsert(key string, cols ...string) string {
	return upsertClause(key, cols)
}

type postgresDialect struct{}

func (d postgresDialect) Now() string { return "NOW()" }
func (d postgresDialect) Upsert(key string, cols ...string) string {
	return upsertClause(key, cols)
}

// Both engines accept the same ON CONFLICT ... DO UPDATE form.
func upsertClause(key string, cols []string) string {
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + "=excluded." + c
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
}

// parseTime converts a scanned timestamp value to time.Time.
// Handles both SQLite (returns string) and Postgres (returns time.Time).
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if t == "" {
			return time.Time{}
		}
		for _, layout := range []string{
			"2006-01-02 15:04:05",
			time.RFC3339,
			time.RFC3339Nano,
			"2006-01-02 15:04:05-07:00",
			"2006-01-02 15:04:05.999999-07:00",
		} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// Rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func Rebind(query string) string {
	n := 0
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}
