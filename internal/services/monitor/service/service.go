// Package service contains the monitor reconciliation loop
package service

import (
	"context"
	"errors"
	"time"

	"rollcall/internal/core/anonymize"
	"rollcall/internal/core/ledger"
	"rollcall/internal/core/location"
	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/schedule"
	"rollcall/internal/services/monitor/domain"

	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// Service defines the monitor service contract
type Service interface {
	domain.MonitorPort
	domain.StatusPort
}

// Config carries the loop cadence and collaborator timeouts
type Config struct {
	Interval      time.Duration
	Window        time.Duration
	FetchTimeout  time.Duration
	LookupTimeout time.Duration
	AppendTimeout time.Duration

	// Location formats last-seen and snapshot times, time.Local when nil
	Location *time.Location
}

func withDefaults(cfg Config) Config {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 5 * time.Second
	}
	if cfg.AppendTimeout <= 0 {
		cfg.AppendTimeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return cfg
}

// Resolvers are the pure derivations applied to every record
type Resolvers struct {
	Classroom func(addr string) string
	Identity  func(userID int64) anonymize.Token
}

// DefaultResolvers derives classrooms from addresses and hashes user ids
func DefaultResolvers() Resolvers {
	return Resolvers{Classroom: location.Classroom, Identity: anonymize.OfID}
}

// Collaborators are the ports the loop talks to. Console may be nil
type Collaborators struct {
	Source    domain.ActivitySource
	Locations domain.LocationStore
	Sink      domain.Sink
	Console   domain.Console
}

// Option customizes a Svc
type Option func(*Svc)

// WithClock replaces the real clock
func WithClock(c quartz.Clock) Option {
	return func(s *Svc) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithResolvers replaces the classroom and identity derivations. Nil fields keep the defaults
func WithResolvers(r Resolvers) Option {
	return func(s *Svc) {
		if r.Classroom != nil {
			s.res.Classroom = r.Classroom
		}
		if r.Identity != nil {
			s.res.Identity = r.Identity
		}
	}
}

// WithMetrics records tick outcomes into m
func WithMetrics(m *Metrics) Option {
	return func(s *Svc) { s.metrics = m }
}

// WithLogger sets the base logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Svc) {
		if l != nil {
			s.log = l
		}
	}
}

// Svc implements the monitor service. Bootstrap, RunTick and Run must be
// called from one goroutine; Status is safe from any
type Svc struct {
	cfg     Config
	col     Collaborators
	res     Resolvers
	clock   quartz.Clock
	metrics *Metrics
	log     *logger.Logger

	ledger *ledger.Ledger
	status statusBox

	ticks    uint64
	failures uint64
}

// New constructs the service. Source, Locations and Sink are required
func New(cfg Config, col Collaborators, opts ...Option) (*Svc, error) {
	switch {
	case col.Source == nil:
		return nil, perr.InvalidArgf("monitor: nil activity source")
	case col.Locations == nil:
		return nil, perr.InvalidArgf("monitor: nil location store")
	case col.Sink == nil:
		return nil, perr.InvalidArgf("monitor: nil sink")
	}
	s := &Svc{
		cfg:    withDefaults(cfg),
		col:    col,
		res:    DefaultResolvers(),
		clock:  quartz.NewReal(),
		log:    logger.Named("monitor"),
		ledger: ledger.New(),
	}
	for _, o := range opts {
		o(s)
	}
	s.status.store(domain.Status{State: domain.StateIdle, StartedAt: s.clock.Now()})
	return s, nil
}

// Config returns the effective configuration
func (s *Svc) Config() Config { return s.cfg }

// Bootstrap prepares the sink and seeds the ledger with the identities it
// already holds. It returns how many distinct identities were loaded
func (s *Svc) Bootstrap(ctx context.Context) (int, error) {
	if s.ledger.Bootstrapped() {
		return 0, perr.Wrap(ledger.ErrAlreadyBootstrapped, perr.ErrorCodeInvalidArgument, "bootstrap")
	}

	cctx, cancel := bound(ctx, s.cfg.FetchTimeout)
	defer cancel()

	if p, ok := s.col.Sink.(domain.Preparer); ok {
		if err := p.Prepare(cctx); err != nil {
			return 0, sinkErr(err, "prepare sink")
		}
	}
	ids, err := s.col.Sink.Identities(cctx)
	if err != nil {
		return 0, sinkErr(err, "read sink identities")
	}
	if bad := foreign(ids); bad > 0 {
		s.log.Warn().Int("count", bad).Msg("sink holds values that are not identity tokens, keeping them as seen")
	}
	if err := s.ledger.Bootstrap(ids); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "bootstrap")
	}

	n := s.ledger.Len()
	s.metrics.ledgerSize(n)
	s.status.update(func(st *domain.Status) {
		st.Bootstrapped = true
		st.Loaded = n
		st.LedgerSize = n
	})
	s.log.Info().Int("loaded", n).Msgf("loaded %d existing user(s) from sink", n)
	return n, nil
}

// Run bootstraps when needed, then ticks every interval until ctx ends.
// A cancelled ctx is a clean stop and returns nil
func (s *Svc) Run(ctx context.Context) error {
	if !s.ledger.Bootstrapped() {
		if _, err := s.Bootstrap(ctx); err != nil {
			return err
		}
	}

	s.log.Info().Dur("interval", s.cfg.Interval).Dur("window", s.cfg.Window).Msg("monitor started")
	err := schedule.Run(ctx, s.clock, s.cfg.Interval, func(tctx context.Context) { s.RunTick(tctx) })
	s.status.update(func(st *domain.Status) { st.State = domain.StateStopped })

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		s.log.Info().Uint64("ticks", s.ticks).Msg("monitor stopped")
		return nil
	}
	return err
}

// RunTick performs one fetch, resolve, emit and render cycle. Collaborator
// failures are reported, never returned
func (s *Svc) RunTick(ctx context.Context) domain.TickReport {
	id := uuid.NewString()
	ctx = logger.WithTick(ctx, id)
	log := s.log.With().Str("tick_id", id).Logger()

	at := s.clock.Now()
	rep := domain.TickReport{ID: id, StartedAt: at}

	s.setState(domain.StateFetching)
	recs, err := s.fetch(ctx)
	if err != nil {
		return s.finish(&log, rep, err)
	}
	rep.Fetched = len(recs)
	s.metrics.activeUsers(len(recs))

	s.setState(domain.StateProcessing)
	users := make([]domain.Resolved, 0, len(recs))
	var failed error
	for _, r := range recs {
		u := s.resolve(ctx, &log, r, &rep)

		switch {
		case s.ledger.Contains(u.Identity):
			rep.Known++
		case failed != nil:
			rep.Deferred++
		default:
			if err := s.emit(ctx, u, at); err != nil {
				failed = err
				rep.Deferred++
				log.Warn().Err(err).Str("identity", u.Identity.String()).Bool("transient", perr.Retryable(err)).
					Msg("sink append failed, deferring remaining rows")
			} else {
				s.ledger.Record(u.Identity)
				u.Emitted = true
				rep.Emitted++
			}
		}
		users = append(users, u)
	}

	s.render(&log, domain.Snapshot{At: at, Users: users})
	return s.finish(&log, rep, failed)
}

func foreign(ids []anonymize.Token) int {
	n := 0
	for _, id := range ids {
		if id != "" && !anonymize.Valid(id.String()) {
			n++
		}
	}
	return n
}

func (s *Svc) fetch(ctx context.Context) ([]domain.ActivityRecord, error) {
	cctx, cancel := bound(ctx, s.cfg.FetchTimeout)
	defer cancel()
	recs, err := s.col.Source.ActiveUsers(cctx, s.cfg.Window)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeSourceUnavailable) {
			return nil, err
		}
		return nil, perr.Wrap(err, perr.ErrorCodeSourceUnavailable, "fetch active users")
	}
	return recs, nil
}

func (s *Svc) resolve(ctx context.Context, log *logger.Logger, r domain.ActivityRecord, rep *domain.TickReport) domain.Resolved {
	u := domain.Resolved{
		Record:   r,
		Identity: s.res.Identity(r.UserID),
		LastSeen: r.LastSeen(s.cfg.Location),
	}
	// id 0 is never a real platform user
	if r.UserID > 0 {
		addr, ok, err := s.lookup(ctx, r.UserID)
		switch {
		case err != nil:
			rep.LookupFailures++
			log.Warn().Err(err).Str("identity", u.Identity.String()).Bool("transient", perr.Retryable(err)).
				Msg("address lookup failed")
		case ok:
			u.Address, u.HasAddress = addr, true
		}
	}
	u.Classroom = s.res.Classroom(u.Address)
	return u
}

func (s *Svc) lookup(ctx context.Context, userID int64) (string, bool, error) {
	cctx, cancel := bound(ctx, s.cfg.LookupTimeout)
	defer cancel()
	addr, ok, err := s.col.Locations.LastAddress(cctx, userID)
	if err != nil && !perr.IsCode(err, perr.ErrorCodeLookupFailure) {
		err = perr.Wrap(err, perr.ErrorCodeLookupFailure, "lookup last address")
	}
	return addr, ok, err
}

func (s *Svc) emit(ctx context.Context, u domain.Resolved, at time.Time) error {
	cctx, cancel := bound(ctx, s.cfg.AppendTimeout)
	defer cancel()
	row := domain.SnapshotRow{
		Identity:     u.Identity,
		LastSeen:     u.LastSeen,
		Classroom:    u.Classroom,
		SnapshotTime: at,
	}
	if err := s.col.Sink.Append(cctx, row); err != nil {
		return sinkErr(err, "append snapshot row")
	}
	return nil
}

func (s *Svc) render(log *logger.Logger, snap domain.Snapshot) {
	if s.col.Console == nil {
		return
	}
	if err := s.col.Console.Render(snap); err != nil {
		log.Warn().Err(err).Msg("console render failed")
	}
}

func (s *Svc) finish(log *logger.Logger, rep domain.TickReport, err error) domain.TickReport {
	rep.FinishedAt = s.clock.Now()
	rep.Duration = rep.FinishedAt.Sub(rep.StartedAt)
	rep.State = domain.StateIdle
	s.ticks++

	if err != nil {
		rep.State = domain.StateFailed
		w := perr.WireFrom(err)
		rep.Err = &w
		s.failures++
		log.Error().Err(err).Str("code", w.Kind).Int("fetched", rep.Fetched).Int("emitted", rep.Emitted).Msg("tick failed")
	} else {
		ev := log.Info().Int("fetched", rep.Fetched).Int("known", rep.Known).Int("lookup_failures", rep.LookupFailures)
		if rep.Emitted > 0 {
			ev.Msgf("%d new user(s) appended to sink", rep.Emitted)
		} else {
			ev.Msg("no new users to append")
		}
	}

	s.metrics.observe(rep, s.ledger.Len())

	last := rep
	s.status.update(func(st *domain.Status) {
		st.State = rep.State
		st.LedgerSize = s.ledger.Len()
		st.Ticks = s.ticks
		st.Failures = s.failures
		st.Last = &last
	})
	return rep
}

func (s *Svc) setState(st domain.State) {
	s.status.update(func(cur *domain.Status) { cur.State = st })
}

// bound applies d to ctx when positive
func bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func sinkErr(err error, msg string) error {
	if perr.IsCode(err, perr.ErrorCodeSinkUnavailable) {
		return err
	}
	return perr.Wrap(err, perr.ErrorCodeSinkUnavailable, msg)
}
