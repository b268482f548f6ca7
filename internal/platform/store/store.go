// Package store provides a unified interface to optional storage backends
package store

import (
	"context"
	"errors"
	"fmt"

	"rollcall/internal/platform/logger"
)

// ErrNoRows is returned by Row.Scan when a single-row query matched nothing,
// whichever driver served it
var ErrNoRows = errors.New("store: no rows")

// Store is the facade for optional backends
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	Log logger.Logger

	// PG is the postgres sql seam, nil when disabled
	PG TxRunner

	// MySQL is the mysql/mariadb sql seam, nil when disabled
	MySQL TxRunner

	// CH is the clickhouse seam, nil when disabled
	CH Clickhouse
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is a tiny seam for columnar writes and queries
type Clickhouse interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Open constructs a Store with the requested backends. Each enabled backend is
// pinged with backoff before it is published; a backend that never answers
// fails Open and already-opened backends are closed
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	s.Log = s.Log.With().Str("component", "store").Logger()

	fail := func(err error) (*Store, error) {
		_ = s.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	if cfg.PG.Enabled {
		c, err := openPG(ctx, cfg, s)
		if err != nil {
			return fail(err)
		}
		s.PG = c
	}

	if cfg.MySQL.Enabled {
		c, err := openMySQL(ctx, cfg, s)
		if err != nil {
			return fail(err)
		}
		s.MySQL = c
	}

	if cfg.CH.Enabled {
		c, err := openCH(ctx, cfg, s)
		if err != nil {
			return fail(err)
		}
		s.CH = c
	}

	return s, nil
}

// Close closes all initialized backends
// nil backends are ignored
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error

	if s.CH != nil {
		if e := s.CH.Close(); e != nil {
			errs = append(errs, fmt.Errorf("ch: %w", e))
		}
	}
	if c, ok := s.MySQL.(interface{ Close() error }); ok {
		if e := c.Close(); e != nil {
			errs = append(errs, fmt.Errorf("mysql: %w", e))
		}
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		if e := c.Close(); e != nil {
			errs = append(errs, fmt.Errorf("pg: %w", e))
		}
	}

	return errors.Join(errs...)
}
