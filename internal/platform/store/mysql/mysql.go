// Package mysql provides a MySQL/MariaDB client for the Moodle database over database/sql
package mysql

import (
	"context"
	"database/sql"
	"time"

	"rollcall/internal/platform/store/trace"

	gomysql "github.com/go-sql-driver/mysql"
)

// Config configures the connection pool
type Config struct {
	DSN             string // user:pass@tcp(host:3306)/moodle
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	SlowMs          int
}

// DB is a mysql client with pool and optional tracer
type DB struct {
	SQL    *sql.DB
	Tracer trace.QueryTracer
	SlowMs int
}

// ParseConfig normalises the DSN: parseTime so DATETIME scans into time.Time,
// UTC location, and a dial timeout so a dead host fails within one ping
func ParseConfig(cfg Config) (*gomysql.Config, error) {
	mc, err := gomysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	if cfg.DialTimeout > 0 {
		mc.Timeout = cfg.DialTimeout
	} else if mc.Timeout == 0 {
		mc.Timeout = 5 * time.Second
	}
	return mc, nil
}

// Open creates the pool. database/sql connects lazily; callers ping before use
func Open(cfg Config, tracer trace.QueryTracer) (*DB, error) {
	mc, err := ParseConfig(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := gomysql.NewConnector(mc)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 3 * time.Minute
	}
	db.SetConnMaxLifetime(lifetime)

	return &DB{SQL: db, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// Ping checks connectivity without emitting a trace line
func (d *DB) Ping(ctx context.Context) error { return d.SQL.PingContext(ctx) }

// Close closes the pool
func (d *DB) Close() error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}
