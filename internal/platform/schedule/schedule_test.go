package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "rollcall/internal/platform/errors"
	kit "rollcall/internal/platform/testkit"

	"github.com/coder/quartz"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRun_ImmediateThenEveryInterval(t *testing.T) {
	t.Parallel()
	testCtx := kit.Context(t, 10*time.Second)

	clock := quartz.NewMock(t)
	trap := clock.Trap().NewTicker(Tag)
	defer trap.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, clock, 10*time.Second, func(context.Context) { ticks <- struct{}{} })
	}()

	call := trap.MustWait(testCtx)
	if call.Duration != 10*time.Second {
		t.Fatalf("ticker duration = %v", call.Duration)
	}
	call.MustRelease(testCtx)

	waitTick(t, testCtx, ticks) // immediate
	for i := 0; i < 3; i++ {
		clock.Advance(10 * time.Second).MustWait(testCtx)
		waitTick(t, testCtx, ticks)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-testCtx.Done():
		t.Fatalf("Run did not return after cancel")
	}
	if len(ticks) != 0 {
		t.Fatalf("unexpected extra ticks: %d", len(ticks))
	}
}

func TestRun_InFlightTickSurvivesCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	var tickErr error
	err := Run(ctx, quartz.NewMock(t), time.Second, func(tc context.Context) {
		calls++
		cancel()
		tickErr = tc.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if tickErr != nil {
		t.Fatalf("tick context was cancelled mid-tick: %v", tickErr)
	}
}

type ctxKey struct{}

func TestRun_TickKeepsValues(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "v"))
	var got any
	_ = Run(ctx, quartz.NewMock(t), time.Second, func(tc context.Context) {
		got = tc.Value(ctxKey{})
		cancel()
	})
	if got != "v" {
		t.Fatalf("tick ctx value = %v", got)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Run(ctx, quartz.NewMock(t), time.Second, func(context.Context) { calls++ })
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("Run = %v, calls = %d", err, calls)
	}
}

func TestRun_InvalidArgs(t *testing.T) {
	t.Parallel()

	kit.MustCode(t, Run(context.Background(), nil, 0, func(context.Context) {}), perr.ErrorCodeInvalidArgument)
	kit.MustCode(t, Run(context.Background(), nil, time.Second, nil), perr.ErrorCodeInvalidArgument)
}

func waitTick(t *testing.T, ctx context.Context, ticks <-chan struct{}) {
	t.Helper()
	select {
	case <-ticks:
	case <-ctx.Done():
		t.Fatalf("timed out waiting for tick")
	}
}
