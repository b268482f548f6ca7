package domain

import (
	"context"
	"time"

	"rollcall/internal/core/anonymize"
)

// ActivitySource reports users active within window, in a stable source order
type ActivitySource interface {
	ActiveUsers(ctx context.Context, window time.Duration) ([]ActivityRecord, error)
}

// LocationStore returns a user's last known network address. ok is false when
// the user has none
type LocationStore interface {
	LastAddress(ctx context.Context, userID int64) (addr string, ok bool, err error)
}

// Sink is the append-only durable record of emitted rows
type Sink interface {
	Identities(ctx context.Context) ([]anonymize.Token, error)
	Append(ctx context.Context, row SnapshotRow) error
}

// Preparer is implemented by sinks that need setup (header row, table) before
// their identities can be read
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Console renders the full activity set of a tick for an operator
type Console interface {
	Render(s Snapshot) error
}

// MonitorPort runs the reconciliation loop
type MonitorPort interface {
	Bootstrap(ctx context.Context) (int, error)
	RunTick(ctx context.Context) TickReport
	Run(ctx context.Context) error
}

// StatusPort exposes the last published loop status
type StatusPort interface {
	Status() Status
}
