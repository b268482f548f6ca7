// Package module wires the monitor service and exposes its ports
package module

import (
	"context"
	"os"
	"time"

	"rollcall/internal/adapters/console"
	"rollcall/internal/adapters/moodle"
	"rollcall/internal/adapters/sheets"
	"rollcall/internal/modkit"
	"rollcall/internal/modkit/httpkit"
	"rollcall/internal/modkit/repokit"
	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/logger"
	"rollcall/internal/services/monitor/bridge"
	"rollcall/internal/services/monitor/domain"
	monhttp "rollcall/internal/services/monitor/http"
	"rollcall/internal/services/monitor/repo"
	"rollcall/internal/services/monitor/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/text/language"
)

// openSheet is a seam for tests
var openSheet = func(ctx context.Context, o sheets.Options) (bridge.SheetClient, string, error) {
	s, err := sheets.Open(ctx, o)
	if err != nil {
		return nil, "", err
	}
	return s, s.Target(), nil
}

var _ modkit.Module = (*Module)(nil)

// Module defines the monitor module
type Module struct {
	deps  modkit.Deps
	opts  Options
	built modkit.Built
	svc   *service.Svc
	ports Ports
	reg   *prometheus.Registry

	checks    map[string]monhttp.Pinger
	endpoint  string
	sinkDesc  string
	startedAt time.Time
}

// New constructs the monitor from validated options. The stores named by
// opts.Backends must already be open in deps
func New(ctx context.Context, deps modkit.Deps, opts Options, mopts ...modkit.Option) (*Module, error) {
	log := deps.Logger().With().Str("component", "monitor").Logger()

	loc, err := time.LoadLocation(opts.TimeZone)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "unknown time zone %q", opts.TimeZone), "CORE_MONITOR_TIMEZONE")
	}

	client, err := moodle.NewClient(moodle.Options{
		BaseURL: opts.MoodleURL,
		Token:   opts.MoodleToken,
		Timeout: opts.FetchTimeout,
	})
	if err != nil {
		return nil, err
	}

	m := &Module{
		deps:      deps,
		opts:      opts,
		built:     modkit.Build("monitor", mopts...),
		reg:       prometheus.NewRegistry(),
		checks:    map[string]monhttp.Pinger{},
		endpoint:  client.Endpoint(),
		startedAt: time.Now(),
	}

	locations, err := m.locationStore()
	if err != nil {
		return nil, err
	}
	sink, err := m.sink(ctx, loc)
	if err != nil {
		return nil, err
	}

	col := service.Collaborators{
		Source:    bridge.NewSource(client, nil),
		Locations: locations,
		Sink:      sink,
	}
	if opts.Console {
		col.Console = bridge.NewView(console.New(console.Options{
			Out:    os.Stdout,
			Lang:   language.Make(opts.ConsoleLang),
			Window: opts.Window,
			Style:  opts.ConsoleStyle,
		}))
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc, err := service.New(service.Config{
		Interval:      opts.Interval,
		Window:        opts.Window,
		FetchTimeout:  opts.FetchTimeout,
		LookupTimeout: opts.LookupTimeout,
		AppendTimeout: opts.AppendTimeout,
		Location:      loc,
	}, col,
		service.WithMetrics(service.NewMetrics(m.reg)),
		service.WithLogger(&log),
	)
	if err != nil {
		return nil, err
	}
	m.svc = svc
	m.ports = Ports{Monitor: svc, Status: svc}
	return m, nil
}

func (m *Module) locationStore() (domain.LocationStore, error) {
	var (
		db   repokit.TxRunner
		name string
	)
	switch m.opts.Location {
	case LocationMySQL:
		db, name = m.deps.MySQL, "mysql"
	case LocationPostgres:
		db, name = m.deps.PG, "pg"
	default:
		return nil, perr.WithField(perr.Validationf("unknown location backend %q", m.opts.Location), "CORE_MONITOR_LOCATION")
	}
	d, err := repo.ParseDialect(m.opts.Location)
	if err != nil {
		return nil, err
	}
	loc, err := repokit.Bind(repo.NewLocation(d, m.opts.TablePrefix), db, name)
	if err != nil {
		return nil, err
	}
	m.addCheck(name, db)
	return loc, nil
}

func (m *Module) sink(ctx context.Context, loc *time.Location) (domain.Sink, error) {
	switch m.opts.Sink {
	case SinkSheets:
		s, target, err := openSheet(ctx, sheets.Options{
			CredentialsFile: m.opts.SheetsCredentials,
			SpreadsheetID:   m.opts.SheetsSpreadsheetID,
			SheetName:       m.opts.SheetsName,
		})
		if err != nil {
			return nil, err
		}
		m.sinkDesc = "sheets " + target
		return bridge.NewSheetSink(s, loc), nil
	case SinkPostgres:
		if m.deps.PG == nil {
			return nil, perr.Unavailablef("sink backend postgres is not open")
		}
		m.addCheck("pg", m.deps.PG)
		m.sinkDesc = "postgres " + m.opts.SinkTable
		return repo.NewSQLSink(m.deps.PG, repo.SQLSinkOptions{
			Table:            m.opts.SinkTable,
			Migrate:          m.opts.SinkMigrate,
			StatementTimeout: m.opts.StatementTimeout,
		}), nil
	case SinkClickhouse:
		if m.deps.CH == nil {
			return nil, perr.Unavailablef("sink backend clickhouse is not open")
		}
		m.addCheck("ch", m.deps.CH)
		m.sinkDesc = "clickhouse " + m.opts.SinkTable
		return repo.NewCHSink(m.deps.CH, m.opts.SinkTable, m.opts.SinkMigrate), nil
	}
	return nil, perr.WithField(perr.Validationf("unknown sink backend %q", m.opts.Sink), "CORE_MONITOR_SINK")
}

func (m *Module) addCheck(name string, seam any) {
	if p, ok := seam.(monhttp.Pinger); ok {
		m.checks[name] = p
	}
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

// Options returns the effective options
func (m *Module) Options() Options { return m.opts }

// Gatherer exposes the module's metrics registry
func (m *Module) Gatherer() prometheus.Gatherer { return m.reg }

// MountRoutes mounts the ops endpoints
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.built.Prefix, m.built.Mw, func(rr httpkit.Router) {
		monhttp.Register(rr, monhttp.Deps{
			StartedAt: m.startedAt,
			Status:    m.svc,
			Checks:    m.checks,
			Gatherer:  m.reg,
		})
	})
}

// Run runs the reconciliation loop until ctx is cancelled
func (m *Module) Run(ctx context.Context) error { return m.ports.Monitor.Run(ctx) }

// LogBanner logs the startup configuration
func (m *Module) LogBanner(log *logger.Logger) {
	log.Info().
		Str("endpoint", m.endpoint).
		Str("location", m.opts.Location+" "+m.opts.TablePrefix+"user").
		Str("sink", m.sinkDesc).
		Dur("interval", m.opts.Interval).
		Dur("window", m.opts.Window).
		Bool("console", m.opts.Console).
		Msg("moodle online users monitor")
}
