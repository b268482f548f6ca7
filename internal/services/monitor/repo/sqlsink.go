package repo

import (
	"context"
	"strings"
	"time"

	"rollcall/internal/core/anonymize"
	"rollcall/internal/modkit/repokit"
	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/store"
	"rollcall/internal/services/monitor/domain"
)

// SQLSink appends snapshot rows to a Postgres table
type SQLSink struct {
	db      repokit.TxRunner
	table   string
	migrate bool
	timeout time.Duration
}

// SQLSinkOptions configures an SQLSink
type SQLSinkOptions struct {
	Table   string
	Migrate bool
	// StatementTimeout bounds each append transaction server side, 0 disables
	StatementTimeout time.Duration
}

// NewSQLSink builds a Postgres sink. Table must already be validated as an SQL identifier
func NewSQLSink(db repokit.TxRunner, o SQLSinkOptions) *SQLSink {
	return &SQLSink{db: db, table: o.Table, migrate: o.Migrate, timeout: o.StatementTimeout}
}

// Prepare creates the table when migrations are enabled
func (s *SQLSink) Prepare(ctx context.Context) error {
	if !s.migrate {
		return nil
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			id            BIGSERIAL PRIMARY KEY,
			identity      CHAR(8)     NOT NULL,
			last_seen     TEXT        NOT NULL,
			classroom     TEXT        NOT NULL,
			snapshot_time TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + s.table + `_identity_idx ON ` + s.table + ` (identity)`,
	}
	for _, q := range ddl {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return perr.Wrapf(perr.FromPostgres(err, "sink migrate"), perr.ErrorCodeSinkUnavailable, "create sink table %s", s.table)
		}
	}
	return nil
}

// Identities returns every identity written so far, oldest first
func (s *SQLSink) Identities(ctx context.Context) ([]anonymize.Token, error) {
	out, err := store.Many(ctx, s.db, scanToken, `SELECT identity FROM `+s.table+` ORDER BY id`)
	if err != nil {
		return nil, perr.Wrapf(perr.FromPostgres(err, "sink read"), perr.ErrorCodeSinkUnavailable, "read identities from %s", s.table)
	}
	return out, nil
}

// Append inserts one row in its own transaction
func (s *SQLSink) Append(ctx context.Context, row domain.SnapshotRow) error {
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		_, err := q.Exec(ctx,
			`INSERT INTO `+s.table+` (identity, last_seen, classroom, snapshot_time) VALUES ($1, $2, $3, $4)`,
			row.Identity.String(), row.LastSeen, row.Classroom, row.SnapshotTime.UTC())
		return err
	}, repokit.StatementTimeout(s.timeout))
	if err != nil {
		return perr.Wrapf(perr.FromPostgres(err, "sink append"), perr.ErrorCodeSinkUnavailable, "append %s to %s", row.Identity, s.table)
	}
	return nil
}

func scanToken(r store.Row) (anonymize.Token, error) {
	var s string
	if err := r.Scan(&s); err != nil {
		return "", err
	}
	return anonymize.Token(strings.TrimSpace(s)), nil
}
