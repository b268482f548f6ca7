// Package repo provides the monitor's SQL and ClickHouse persistence: the
// Moodle location lookup and the SQL-backed sinks
package repo

import (
	"strconv"
	"strings"

	perr "rollcall/internal/platform/errors"
)

// Dialect selects placeholder style and error classification
type Dialect string

// Supported dialects
const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// ParseDialect maps a backend name to a Dialect
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "pg", "postgresql":
		return Postgres, nil
	}
	return "", perr.InvalidArgf("unknown sql dialect %q", s)
}

// ph returns the n-th (1-based) placeholder
func (d Dialect) ph(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// classify maps a driver error to a project error
func (d Dialect) classify(err error, msg string) error {
	if d == Postgres {
		return perr.FromPostgres(err, msg)
	}
	return perr.FromMySQL(err, msg)
}
