package trace

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"rollcall/internal/platform/logger"
	kit "rollcall/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	in := "SELECT lastip\n\t FROM mdl_user\r\n WHERE id = ?  "
	if got := Compact(in); got != "SELECT lastip FROM mdl_user WHERE id = ?" {
		t.Fatalf("Compact = %q", got)
	}
}

func TestSlow(t *testing.T) {
	if !Slow(5000, 5) || Slow(4999, 5) || Slow(1e9, -1) {
		t.Fatalf("Slow threshold mismatch")
	}
}

func TestLoggerTracer(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.ErrorLevel)
	tr := Logger(base, "mysql")

	ctx := logger.WithTick(context.Background(), "tick-1")
	tr.OnQuery(ctx, QueryEvent{Backend: "mysql", SQL: "SELECT 1", ElapsedUS: 1500})
	tr.OnQuery(ctx, QueryEvent{Backend: "mysql", SQL: "SELECT\n 2", Slow: true, Err: errors.New("boom")})

	out := buf.String()
	kit.MustContain(t, out, `"sql":"SELECT 1"`)
	kit.MustContain(t, out, `"sql":"SELECT 2"`)
	kit.MustContain(t, out, `"component":"mysql"`)
	kit.MustContain(t, out, `"tick_id":"tick-1"`)
	kit.MustContain(t, out, `"level":"warn"`)
	kit.MustContain(t, out, `"message":"mysql query"`)
}
