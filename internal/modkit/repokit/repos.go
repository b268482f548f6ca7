// Package repokit holds the seams monitor repositories are written against
package repokit

import (
	"context"

	"rollcall/internal/platform/store"
)

type (
	// Queryer is what location lookups and sink writes need
	Queryer = store.RowQuerier

	// TxRunner is a Queryer that can also open a transaction
	TxRunner = store.TxRunner

	// Clickhouse is the column store seam used by the clickhouse sink
	Clickhouse = store.Clickhouse

	// Rows is a query result set
	Rows = store.Rows

	// Row is a single row result
	Row = store.Row

	// CommandTag reports rows touched by Exec
	CommandTag = store.CommandTag
)

// WithTx runs fn in one transaction on tx after the given hooks
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error, hooks ...BeginHook) error {
	return WithBeginHooks(tx, hooks...).Tx(ctx, fn)
}
