package store

import (
	"context"
	"errors"
)

// Lookup scans the first column of a single-row query into T. ok is false
// when the query matched nothing; that is not an error
func Lookup[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (v T, ok bool, err error) {
	err = q.QueryRow(ctx, sql, args...).Scan(&v)
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, ErrNoRows):
		var zero T
		return zero, false, nil
	default:
		var zero T
		return zero, false, err
	}
}

// Many runs a query and maps every row through scan, closing the rows
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return Collect(rows, scan)
}

// Collect maps rows through scan and reports any iteration error.
// Closing rows stays with the caller
func Collect[T any](rows Rows, scan func(Row) (T, error)) ([]T, error) {
	out := make([]T, 0, 8)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
