package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rollcall/internal/platform/store"
)

type call struct {
	sql  string
	args []any
}

// fakeDB is an in-memory TxRunner that returns canned results by SQL prefix
type fakeDB struct {
	calls   []call
	rows    [][]any
	row     []any
	rowErr  error
	execErr error
	txs     int
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	return nil, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	f.calls = append(f.calls, call{sql, args})
	if f.rowErr != nil {
		return nil, f.rowErr
	}
	return &fakeRows{data: f.rows, i: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) store.Row {
	f.calls = append(f.calls, call{sql, args})
	return fakeRow{vals: f.row, err: f.rowErr}
}

func (f *fakeDB) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	f.txs++
	return fn(f)
}

func (f *fakeDB) sqls() string {
	var b strings.Builder
	for _, c := range f.calls {
		b.WriteString(strings.Join(strings.Fields(c.sql), " "))
		b.WriteString("\n")
	}
	return b.String()
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dst ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.vals == nil {
		return store.ErrNoRows
	}
	return assign(r.vals, dst)
}

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Next() bool            { r.i++; return r.i < len(r.data) }
func (r *fakeRows) Scan(dst ...any) error { return assign(r.data[r.i], dst) }
func (r *fakeRows) Err() error            { return nil }
func (r *fakeRows) Close()                {}
func (r *fakeRows) Columns() []string     { return []string{"identity"} }

func assign(vals []any, dst []any) error {
	if len(vals) != len(dst) {
		return errors.New("fake: column count mismatch")
	}
	for i, v := range vals {
		switch d := dst[i].(type) {
		case *string:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("fake: column %d is %T", i, v)
			}
			*d = s
		default:
			return fmt.Errorf("fake: unsupported dest %T", dst[i])
		}
	}
	return nil
}

// fakeCH is an in-memory Clickhouse seam
type fakeCH struct {
	fakeDB
	inserts  [][]any
	table    string
	cols     []string
	closeErr error
}

func (f *fakeCH) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := f.fakeDB.Exec(ctx, sql, args...)
	return err
}

func (f *fakeCH) Insert(_ context.Context, table string, columns []string, rows [][]any) error {
	if f.execErr != nil {
		return f.execErr
	}
	f.table, f.cols = table, columns
	f.inserts = append(f.inserts, rows...)
	return nil
}

func (f *fakeCH) Close() error { return f.closeErr }
