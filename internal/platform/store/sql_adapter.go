package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rollcall/internal/platform/store/mysql"
	"rollcall/internal/platform/store/pg"
	"rollcall/internal/platform/store/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// emitter sends a trace event for one statement when a tracer is configured
type emitter struct {
	backend string
	tracer  trace.QueryTracer
	slowMs  int
}

func (e emitter) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if e.tracer == nil {
		return
	}
	us := time.Since(start).Microseconds()
	e.tracer.OnQuery(ctx, trace.QueryEvent{
		Backend:   e.backend,
		SQL:       sql,
		Args:      args,
		ElapsedUS: us,
		Err:       err,
		Slow:      trace.Slow(us, e.slowMs),
	})
}

// pgAdapter wraps pg.PG and implements RowQuerier + TxRunner
type pgAdapter struct {
	p *pg.PG
	emitter
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{p: p, emitter: emitter{backend: "pg", tracer: p.Tracer, slowMs: p.SlowMs}}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return pgExec(ctx, a.p.Pool, a.emitter, sql, args)
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return pgQuery(ctx, a.p.Pool, a.emitter, sql, args)
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return pgQueryRow(ctx, a.p.Pool, a.emitter, sql, args)
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(pgTx{tx: tx, emitter: a.emitter}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// pgConn is the statement surface shared by *pgxpool.Pool and pgx.Tx
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgExec(ctx context.Context, c pgConn, e emitter, sql string, args []any) (CommandTag, error) {
	start := time.Now()
	ct, err := c.Exec(ctx, sql, args...)
	e.emit(ctx, sql, args, start, err)
	return pgTag{ct}, err
}

func pgQuery(ctx context.Context, c pgConn, e emitter, sql string, args []any) (Rows, error) {
	start := time.Now()
	rs, err := c.Query(ctx, sql, args...)
	e.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgRows{r: rs}, nil
}

func pgQueryRow(ctx context.Context, c pgConn, e emitter, sql string, args []any) Row {
	start := time.Now()
	r := c.QueryRow(ctx, sql, args...)
	return pgRow{r: r, after: func(err error) { e.emit(ctx, sql, args, start, err) }}
}

// pgTx satisfies RowQuerier inside a transaction with the same tracing
type pgTx struct {
	tx pgx.Tx
	emitter
}

func (t pgTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return pgExec(ctx, t.tx, t.emitter, sql, args)
}

func (t pgTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return pgQuery(ctx, t.tx, t.emitter, sql, args)
}

func (t pgTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return pgQueryRow(ctx, t.tx, t.emitter, sql, args)
}

type pgRow struct {
	r     pgx.Row
	after func(error)
}

func (x pgRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}
	return err
}

type pgRows struct{ r pgx.Rows }

func (x pgRows) Next() bool            { return x.r.Next() }
func (x pgRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x pgRows) Err() error            { return x.r.Err() }
func (x pgRows) Close()                { x.r.Close() }
func (x pgRows) Columns() []string {
	f := x.r.FieldDescriptions()
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].Name
	}
	return out
}

type pgTag struct{ t pgconn.CommandTag }

func (t pgTag) String() string      { return t.t.String() }
func (t pgTag) RowsAffected() int64 { return t.t.RowsAffected() }

// sqlAdapter wraps a database/sql pool (mysql/mariadb) as RowQuerier + TxRunner
type sqlAdapter struct {
	db *mysql.DB
	emitter
}

func newSQLAdapter(db *mysql.DB) *sqlAdapter {
	return &sqlAdapter{db: db, emitter: emitter{backend: "mysql", tracer: db.Tracer, slowMs: db.SlowMs}}
}

func (a *sqlAdapter) Ping(ctx context.Context) error {
	if a == nil || a.db == nil {
		return errors.New("mysql: nil adapter")
	}
	return a.db.Ping(ctx)
}

func (a *sqlAdapter) Close() error { return a.db.Close() }

func (a *sqlAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqlExec(ctx, a.db.SQL, a.emitter, q, args)
}

func (a *sqlAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqlQuery(ctx, a.db.SQL, a.emitter, q, args)
}

func (a *sqlAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	return sqlQueryRow(ctx, a.db.SQL, a.emitter, q, args)
}

func (a *sqlAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqlTx{tx: tx, emitter: a.emitter}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// sqlConn is the statement surface shared by *sql.DB and *sql.Tx
type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqlExec(ctx context.Context, c sqlConn, e emitter, q string, args []any) (CommandTag, error) {
	start := time.Now()
	res, err := c.ExecContext(ctx, q, args...)
	e.emit(ctx, q, args, start, err)
	if err != nil {
		return sqlTag{}, err
	}
	n, _ := res.RowsAffected()
	return sqlTag{n: n}, nil
}

func sqlQuery(ctx context.Context, c sqlConn, e emitter, q string, args []any) (Rows, error) {
	start := time.Now()
	rs, err := c.QueryContext(ctx, q, args...)
	e.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return sqlRows{r: rs}, nil
}

func sqlQueryRow(ctx context.Context, c sqlConn, e emitter, q string, args []any) Row {
	start := time.Now()
	r := c.QueryRowContext(ctx, q, args...)
	return sqlRow{r: r, after: func(err error) { e.emit(ctx, q, args, start, err) }}
}

type sqlTx struct {
	tx *sql.Tx
	emitter
}

func (t sqlTx) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqlExec(ctx, t.tx, t.emitter, q, args)
}

func (t sqlTx) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqlQuery(ctx, t.tx, t.emitter, q, args)
}

func (t sqlTx) QueryRow(ctx context.Context, q string, args ...any) Row {
	return sqlQueryRow(ctx, t.tx, t.emitter, q, args)
}

type sqlRow struct {
	r     *sql.Row
	after func(error)
}

func (x sqlRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return err
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }
func (x sqlRows) Columns() []string {
	cols, _ := x.r.Columns()
	return cols
}

// sqlTag renders like pg's tag for logs; database/sql has no verb
type sqlTag struct{ n int64 }

func (t sqlTag) String() string      { return fmt.Sprintf("ROWS %d", t.n) }
func (t sqlTag) RowsAffected() int64 { return t.n }
