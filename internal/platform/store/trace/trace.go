// Package trace logs SQL statements issued through the store adapters
package trace

import (
	"context"
	"strings"

	"rollcall/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement round trip
type QueryEvent struct {
	Backend   string
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives statement events
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Logger returns a tracer that always prints statements regardless of the
// process-wide level, tagged with the backend name
func Logger(root logger.Logger, backend string) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", backend).Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if id := logger.TickID(ctx); id != "" {
		evt = evt.Str("tick_id", id)
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", Compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg(ev.Backend + " query")
}

// Compact folds runs of whitespace so multi-line SQL fits on one log line
func Compact(s string) string { return strings.Join(strings.Fields(s), " ") }

// Slow reports whether elapsed crossed the threshold; negative thresholds disable it
func Slow(elapsedUS int64, slowMs int) bool {
	return slowMs >= 0 && elapsedUS >= int64(slowMs)*1000
}
