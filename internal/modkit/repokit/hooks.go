package repokit

import (
	"context"
	"fmt"
	"time"
)

// BeginHook runs first inside a transaction with the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// StatementTimeout caps every statement in the transaction on postgres.
// A non-positive d yields nil, which WithBeginHooks ignores
func StatementTimeout(d time.Duration) BeginHook {
	if d <= 0 {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", d.Milliseconds())
	return func(ctx context.Context, q Queryer) error {
		_, err := q.Exec(ctx, stmt)
		return err
	}
}

// WithBeginHooks returns a TxRunner that runs the non-nil hooks before fn.
// With no hooks left inner is returned as is
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	kept := make([]BeginHook, 0, len(hooks))
	for _, hk := range hooks {
		if hk != nil {
			kept = append(kept, hk)
		}
	}
	if len(kept) == 0 {
		return inner
	}
	return hookedTx{TxRunner: inner, hooks: kept}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}
