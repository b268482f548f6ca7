// Package bridge adapts the Moodle, Google Sheets and console adapters to the
// monitor's domain ports
package bridge

import (
	"context"
	"time"

	"rollcall/internal/adapters/console"
	"rollcall/internal/adapters/moodle"
	"rollcall/internal/core/anonymize"
	"rollcall/internal/services/monitor/domain"

	"github.com/coder/quartz"
)

// MoodleClient is the part of moodle.Client the source needs
type MoodleClient interface {
	ActiveUsers(ctx context.Context, since time.Time) ([]moodle.User, error)
}

// Source reports active users from Moodle
type Source struct {
	c     MoodleClient
	clock quartz.Clock
}

// NewSource wraps c. A nil clock uses the real clock
func NewSource(c MoodleClient, clock quartz.Clock) *Source {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Source{c: c, clock: clock}
}

// ActiveUsers returns users whose last access is within window of now
func (s *Source) ActiveUsers(ctx context.Context, window time.Duration) ([]domain.ActivityRecord, error) {
	users, err := s.c.ActiveUsers(ctx, s.clock.Now().Add(-window))
	if err != nil {
		return nil, err
	}
	out := make([]domain.ActivityRecord, len(users))
	for i, u := range users {
		out[i] = domain.ActivityRecord{
			UserID:     u.ID,
			Username:   u.Username,
			FullName:   u.FullName,
			LastAccess: u.LastAccessTime(),
		}
	}
	return out, nil
}

// SheetClient is the part of sheets.Sheet the sink needs
type SheetClient interface {
	EnsureHeader(ctx context.Context) (bool, error)
	Identities(ctx context.Context) ([]string, error)
	Append(ctx context.Context, rows ...[]string) error
}

// SheetSink stores snapshot rows in a Google Sheet
type SheetSink struct {
	s   SheetClient
	loc *time.Location
}

// NewSheetSink wraps s. Snapshot times are written in loc
func NewSheetSink(s SheetClient, loc *time.Location) *SheetSink {
	return &SheetSink{s: s, loc: loc}
}

// Prepare writes the header row into an empty sheet
func (k *SheetSink) Prepare(ctx context.Context) error {
	_, err := k.s.EnsureHeader(ctx)
	return err
}

// Identities returns the identities in column A
func (k *SheetSink) Identities(ctx context.Context) ([]anonymize.Token, error) {
	vals, err := k.s.Identities(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]anonymize.Token, len(vals))
	for i, v := range vals {
		out[i] = anonymize.Token(v)
	}
	return out, nil
}

// Append writes one row
func (k *SheetSink) Append(ctx context.Context, row domain.SnapshotRow) error {
	return k.s.Append(ctx, row.Columns(k.loc))
}

// Renderer is the part of console.Console the view needs
type Renderer interface {
	Render(at time.Time, rows []console.Row) error
}

// View renders snapshots on the console
type View struct {
	r Renderer
}

// NewView wraps r
func NewView(r Renderer) *View { return &View{r: r} }

// Render shows every user of the snapshot, emitted or not
func (v *View) Render(s domain.Snapshot) error {
	rows := make([]console.Row, len(s.Users))
	for i, u := range s.Users {
		addr := ""
		if u.HasAddress {
			addr = u.Address
		}
		rows[i] = console.Row{
			Identity:  u.Identity.String(),
			FullName:  u.Record.FullName,
			Username:  u.Record.Username,
			LastSeen:  u.LastSeen,
			Address:   addr,
			Classroom: u.Classroom,
		}
	}
	return v.r.Render(s.At, rows)
}
