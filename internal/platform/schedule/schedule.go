// Package schedule drives a tick function on a fixed cadence
package schedule

import (
	"context"
	"time"

	perr "rollcall/internal/platform/errors"

	"github.com/coder/quartz"
)

// Tag names the ticker so tests can trap it among other clock calls
const Tag = "schedule"

// Run calls tick once immediately and then every interval until ctx ends.
// Ticks never overlap: a tick that outlasts the interval delays the next one.
// Each tick gets a context that keeps ctx's values but not its cancellation,
// so an in-flight tick finishes and Run returns ctx.Err() at the next boundary
func Run(ctx context.Context, clock quartz.Clock, interval time.Duration, tick func(context.Context)) error {
	if interval <= 0 {
		return perr.InvalidArgf("schedule: interval must be positive, got %s", interval)
	}
	if tick == nil {
		return perr.InvalidArgf("schedule: nil tick")
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := clock.NewTicker(interval, Tag)
	defer t.Stop()

	detached := context.WithoutCancel(ctx)
	tick(detached)

	for {
		// cancellation wins over a tick that is already due
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			tick(detached)
		}
	}
}
