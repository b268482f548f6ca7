package testkit

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "rollcall/internal/platform/errors"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() { panic("boom") })
}

func TestMustNotPanic(t *testing.T) {
	t.Parallel()
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "alpha beta gamma", "beta")
}

func TestMustCode(t *testing.T) {
	t.Parallel()
	MustCode(t, perr.Wrap(errors.New("x"), perr.ErrorCodeSinkUnavailable, "append"), perr.ErrorCodeSinkUnavailable)
}

func TestContext(t *testing.T) {
	t.Parallel()
	ctx := Context(t, 10*time.Millisecond)
	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.Fatalf("ctx err = %v", ctx.Err())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("context never expired")
	}
}
