package repokit

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "rollcall/internal/platform/errors"
)

type fakeQ struct{ execs []string }

func (f *fakeQ) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	f.execs = append(f.execs, sql)
	return nil, nil
}
func (f *fakeQ) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (f *fakeQ) QueryRow(context.Context, string, ...any) Row        { return nil }

type fakeTx struct {
	fakeQ
	began int
}

func (f *fakeTx) Tx(_ context.Context, fn func(q Queryer) error) error {
	f.began++
	return fn(&f.fakeQ)
}

var _ TxRunner = (*fakeTx)(nil)

type echo struct{}

func (echo) Bind(q Queryer) Queryer { return q }

func TestBind(t *testing.T) {
	q := &fakeQ{}
	got, err := Bind[Queryer](echo{}, q, "mysql")
	if err != nil || got != q {
		t.Fatalf("got=%v err=%v", got, err)
	}
	if _, err := Bind[Queryer](echo{}, nil, "mysql"); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("nil queryer: %v", err)
	}
}

func TestWithTx_StatementTimeoutRunsFirst(t *testing.T) {
	inner := &fakeTx{}
	err := WithTx(context.Background(), inner, func(q Queryer) error {
		_, err := q.Exec(context.Background(), "INSERT")
		return err
	}, StatementTimeout(1500*time.Millisecond))
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if inner.began != 1 || len(inner.execs) != 2 || inner.execs[0] != "SET LOCAL statement_timeout = 1500" {
		t.Fatalf("unexpected exec order %v", inner.execs)
	}
}

func TestWithBeginHooks_NilHooksPassThrough(t *testing.T) {
	inner := &fakeTx{}
	if got := WithBeginHooks(inner, StatementTimeout(0), nil); got != TxRunner(inner) {
		t.Fatalf("expected inner runner back, got %T", got)
	}
}

func TestWithBeginHooks_HookErrorStops(t *testing.T) {
	inner := &fakeTx{}
	boom := errors.New("boom")
	tx := WithBeginHooks(inner, func(context.Context, Queryer) error { return boom })
	called := false
	err := tx.Tx(context.Background(), func(Queryer) error { called = true; return nil })
	if !errors.Is(err, boom) || called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}
