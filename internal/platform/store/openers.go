package store

import (
	"context"
	"fmt"
	"time"

	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/logger"
	chx "rollcall/internal/platform/store/ch"
	"rollcall/internal/platform/store/mysql"
	"rollcall/internal/platform/store/pg"
	"rollcall/internal/platform/store/trace"

	"github.com/cenkalti/backoff/v4"
)

// newBackOff is the retry schedule between startup pings; tests swap it
var newBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = 0 // bounded by retries instead
	return b
}

// pingWithBackoff pings until success, retries run out, ctx ends, or the
// failure is one no amount of waiting fixes (bad credentials, unknown database)
func pingWithBackoff(ctx context.Context, log logger.Logger, name string, boot Boot, ping func(context.Context) error, classify func(error) error) error {
	attempt := 0
	op := func() error {
		attempt++
		pctx, cancel := context.WithTimeout(ctx, boot.pingTimeout())
		defer cancel()
		err := ping(pctx)
		if err == nil {
			return nil
		}
		err = classify(err)
		switch perr.CodeOf(err) {
		case perr.ErrorCodeUnauthorized, perr.ErrorCodeInvalidArgument:
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("backend", name).Int("attempt", attempt).Dur("retry_in", wait).Msg("store not ready")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), uint64(boot.retries())), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return perr.Wrapf(err, perr.CodeOf(err), "%s ping failed after %d attempts", name, attempt)
	}
	return nil
}

// openPG opens pg and publishes the adapter only after the pool answers
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer trace.QueryTracer
	if cfg.PG.LogSQL {
		tracer = trace.Logger(s.Log, "pg")
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:             cfg.PG.URL,
		MaxConns:        cfg.PG.MaxConns,
		SlowMs:          cfg.PG.SlowQueryMs,
		ApplicationName: cfg.AppName,
	}, tracer)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "pg: bad config")
	}

	classify := func(err error) error { return perr.FromPostgres(err, "pg ping") }
	if err := pingWithBackoff(ctx, s.Log, "pg", cfg.PG.Boot, p.Ping, classify); err != nil {
		p.Close()
		return nil, err
	}
	return newPGAdapter(p), nil
}

// openMySQL opens the Moodle mysql/mariadb pool and pings it
func openMySQL(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer trace.QueryTracer
	if cfg.MySQL.LogSQL {
		tracer = trace.Logger(s.Log, "mysql")
	}

	db, err := mysql.Open(mysql.Config{
		DSN:             cfg.MySQL.DSN,
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		DialTimeout:     cfg.MySQL.pingTimeout(),
		SlowMs:          cfg.MySQL.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "mysql: bad dsn")
	}

	classify := func(err error) error { return perr.FromMySQL(err, "mysql ping") }
	if err := pingWithBackoff(ctx, s.Log, "mysql", cfg.MySQL.Boot, db.Ping, classify); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLAdapter(db), nil
}

// openCH opens clickhouse and pings it
func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:         cfg.CH.URL,
		Role:        cfg.AppName,
		Version:     cfg.CH.Version,
		DialTimeout: cfg.CH.pingTimeout(),
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "ch: bad config")
	}

	classify := func(err error) error { return perr.Wrap(err, perr.ErrorCodeUnavailable, "ch ping") }
	if err := pingWithBackoff(ctx, s.Log, "ch", cfg.CH.Boot, c.Ping, classify); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	return newCHAdapter(c), nil
}
