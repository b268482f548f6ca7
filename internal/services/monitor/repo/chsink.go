package repo

import (
	"context"

	"rollcall/internal/core/anonymize"
	"rollcall/internal/modkit/repokit"
	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/store"
	"rollcall/internal/services/monitor/domain"
)

var chColumns = []string{"identity", "last_seen", "classroom", "snapshot_time"}

// CHSink appends snapshot rows to a ClickHouse MergeTree table
type CHSink struct {
	ch      repokit.Clickhouse
	table   string
	migrate bool
}

// NewCHSink builds a ClickHouse sink. Table must already be validated as an SQL identifier
func NewCHSink(ch repokit.Clickhouse, table string, migrate bool) *CHSink {
	return &CHSink{ch: ch, table: table, migrate: migrate}
}

// Prepare creates the table when migrations are enabled
func (s *CHSink) Prepare(ctx context.Context) error {
	if !s.migrate {
		return nil
	}
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		identity      FixedString(8),
		last_seen     String,
		classroom     LowCardinality(String),
		snapshot_time DateTime('UTC')
	) ENGINE = MergeTree
	ORDER BY (snapshot_time, identity)`
	if err := s.ch.Exec(ctx, ddl); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeSinkUnavailable, "create sink table %s", s.table)
	}
	return nil
}

// Identities returns every identity written so far
func (s *CHSink) Identities(ctx context.Context) ([]anonymize.Token, error) {
	rows, err := s.ch.Query(ctx, `SELECT identity FROM `+s.table+` ORDER BY snapshot_time`)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSinkUnavailable, "read identities from %s", s.table)
	}
	defer rows.Close()
	out, err := store.Collect(rows, scanToken)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSinkUnavailable, "scan identities from %s", s.table)
	}
	return out, nil
}

// Append inserts one row as a single-row batch
func (s *CHSink) Append(ctx context.Context, row domain.SnapshotRow) error {
	err := s.ch.Insert(ctx, s.table, chColumns, [][]any{{
		row.Identity.String(), row.LastSeen, row.Classroom, row.SnapshotTime.UTC(),
	}})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeSinkUnavailable, "append %s to %s", row.Identity, s.table)
	}
	return nil
}
