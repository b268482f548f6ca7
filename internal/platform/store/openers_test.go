package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/testkit"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

func quietLog() zerolog.Logger { return zerolog.New(io.Discard) }

func noWait(t *testing.T) {
	testkit.Seam(t, &newBackOff, func() backoff.BackOff { return &backoff.ZeroBackOff{} })
}

func asIs(err error) error { return err }

func TestPingWithBackoff_EventuallySucceeds(t *testing.T) {
	noWait(t)

	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}
	if err := pingWithBackoff(context.Background(), quietLog(), "pg", Boot{ConnectRetries: 5}, ping, asIs); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestPingWithBackoff_GivesUp(t *testing.T) {
	noWait(t)

	calls := 0
	ping := func(context.Context) error { calls++; return errors.New("connection refused") }
	err := pingWithBackoff(context.Background(), quietLog(), "mysql", Boot{ConnectRetries: 2}, ping, asIs)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if calls != 3 { // first try + 2 retries
		t.Fatalf("calls = %d, want 3", calls)
	}
	testkit.MustContain(t, err.Error(), "mysql ping failed after 3 attempts")
}

func TestPingWithBackoff_PermanentStopsEarly(t *testing.T) {
	noWait(t)

	calls := 0
	ping := func(context.Context) error { calls++; return errors.New("access denied") }
	classify := func(err error) error { return perr.Wrap(err, perr.ErrorCodeUnauthorized, "mysql ping") }
	err := pingWithBackoff(context.Background(), quietLog(), "mysql", Boot{ConnectRetries: 5}, ping, classify)
	if calls != 1 {
		t.Fatalf("permanent failure should not retry, calls = %d", calls)
	}
	testkit.MustCode(t, err, perr.ErrorCodeUnauthorized)
}

func TestPingWithBackoff_ContextCancelled(t *testing.T) {
	noWait(t)

	ctx, cancel := context.WithCancel(context.Background())
	ping := func(context.Context) error { cancel(); return errors.New("refused") }
	err := pingWithBackoff(ctx, quietLog(), "ch", Boot{ConnectRetries: 50}, ping, asIs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPingWithBackoff_PerAttemptTimeout(t *testing.T) {
	noWait(t)

	var deadline time.Time
	ping := func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	}
	start := time.Now()
	if err := pingWithBackoff(context.Background(), quietLog(), "pg", Boot{PingTimeout: time.Second}, ping, asIs); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if d := deadline.Sub(start); d <= 0 || d > 2*time.Second {
		t.Fatalf("per-attempt deadline not applied: %v", d)
	}
}

func TestBootDefaults(t *testing.T) {
	t.Parallel()
	var b Boot
	if b.retries() != 6 || b.pingTimeout() != 5*time.Second {
		t.Fatalf("defaults = %d %v", b.retries(), b.pingTimeout())
	}
}

func TestOpen_BadConfigsFailFast(t *testing.T) {
	noWait(t)

	ctx := context.Background()
	if _, err := Open(ctx, Config{MySQL: MySQLConfig{Enabled: true, DSN: "u:p@tcp(h:1)/m?parseTime=maybe"}}); err == nil {
		t.Fatalf("expected mysql dsn error")
	} else {
		testkit.MustCode(t, err, perr.ErrorCodeInvalidArgument)
	}
	if _, err := Open(ctx, Config{PG: PGConfig{Enabled: true, URL: "://bad"}}); err == nil {
		t.Fatalf("expected pg url error")
	}
	if _, err := Open(ctx, Config{CH: CHConfig{Enabled: true, URL: "::bad"}}); err == nil {
		t.Fatalf("expected ch dsn error")
	}
}
