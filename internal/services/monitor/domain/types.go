// Package domain defines the types and ports of the monitor service
package domain

import (
	"time"

	"rollcall/internal/core/anonymize"
	perr "rollcall/internal/platform/errors"
)

const (
	// LastSeenLayout formats the time-of-day of a user's last access
	LastSeenLayout = "15:04:05"
	// SnapshotLayout formats the moment a row was produced
	SnapshotLayout = "2006-01-02 15:04:05"
	// NoLastSeen is written when the platform reports no last access
	NoLastSeen = "N/A"
)

// ActivityRecord is one user reported active within the recency window.
// Username and FullName are for the console only
type ActivityRecord struct {
	UserID     int64
	Username   string
	FullName   string
	LastAccess time.Time
}

// LastSeen formats LastAccess in loc, or NoLastSeen when it is zero
func (r ActivityRecord) LastSeen(loc *time.Location) string {
	if r.LastAccess.IsZero() {
		return NoLastSeen
	}
	if loc == nil {
		loc = time.Local
	}
	return r.LastAccess.In(loc).Format(LastSeenLayout)
}

// SnapshotRow is the immutable unit appended to the sink
type SnapshotRow struct {
	Identity     anonymize.Token
	LastSeen     string
	Classroom    string
	SnapshotTime time.Time
}

// Columns returns the row as the four sink columns in fixed order
func (r SnapshotRow) Columns(loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	return []string{
		r.Identity.String(),
		r.LastSeen,
		r.Classroom,
		r.SnapshotTime.In(loc).Format(SnapshotLayout),
	}
}

// Resolved is an ActivityRecord after enrichment within one tick
type Resolved struct {
	Record     ActivityRecord
	Address    string
	HasAddress bool
	Classroom  string
	Identity   anonymize.Token
	LastSeen   string
	// Emitted is true when this tick appended the user to the sink
	Emitted bool
}

// Snapshot is the full activity set of one tick, in source order
type Snapshot struct {
	At    time.Time
	Users []Resolved
}

// State is a reconciliation loop state
type State string

// Loop states
const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateProcessing State = "processing"
	StateFailed     State = "failed"
	StateStopped    State = "stopped"
)

// TickReport summarizes one reconciliation tick
type TickReport struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	State      State         `json:"state"`

	Fetched        int `json:"fetched"`
	Emitted        int `json:"emitted"`
	Known          int `json:"known"`
	Deferred       int `json:"deferred"`
	LookupFailures int `json:"lookup_failures"`

	Err *perr.Wire `json:"error,omitempty"`
}

// Failed reports whether the tick ended in the failed state
func (r TickReport) Failed() bool { return r.State == StateFailed }

// Status is the published view of the loop read by the ops surface
type Status struct {
	State        State       `json:"state"`
	StartedAt    time.Time   `json:"started_at"`
	Bootstrapped bool        `json:"bootstrapped"`
	Loaded       int         `json:"loaded"`
	LedgerSize   int         `json:"ledger_size"`
	Ticks        uint64      `json:"ticks"`
	Failures     uint64      `json:"failures"`
	Last         *TickReport `json:"last_tick,omitempty"`
}
