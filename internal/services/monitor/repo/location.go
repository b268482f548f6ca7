package repo

import (
	"context"
	"strings"

	"rollcall/internal/modkit/repokit"
	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/store"
	"rollcall/internal/services/monitor/domain"
)

// Location reads Moodle's user table for last known addresses
type Location struct {
	dialect Dialect
	prefix  string
}

type locationQueries struct {
	q   repokit.Queryer
	d   Dialect
	sql string
}

// NewLocation returns a binder for the user table named prefix+"user".
// prefix must already be validated as an SQL identifier
func NewLocation(d Dialect, prefix string) repokit.Binder[domain.LocationStore] {
	return Location{dialect: d, prefix: prefix}
}

// Bind binds a Queryer to the location lookup
func (l Location) Bind(q repokit.Queryer) domain.LocationStore {
	return &locationQueries{
		q:   q,
		d:   l.dialect,
		sql: "SELECT COALESCE(lastip, '') FROM " + l.prefix + "user WHERE id = " + l.dialect.ph(1),
	}
}

// LastAddress returns the user's lastip. Unknown users and empty values are
// reported as absent. User id 0 is never looked up
func (r *locationQueries) LastAddress(ctx context.Context, userID int64) (string, bool, error) {
	if userID <= 0 {
		return "", false, nil
	}
	ip, found, err := store.Lookup[string](ctx, r.q, r.sql, userID)
	if err != nil {
		return "", false, perr.Wrapf(r.d.classify(err, "query user lastip"), perr.ErrorCodeLookupFailure, "lastip lookup for user %d", userID)
	}
	ip = strings.TrimSpace(ip)
	return ip, found && ip != "", nil
}
