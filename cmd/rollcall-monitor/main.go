package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rollcall/internal/core/version"
	"rollcall/internal/modkit"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/logger"
	phttp "rollcall/internal/platform/net/http"
	"rollcall/internal/platform/net/middleware"
	"rollcall/internal/platform/store"

	monmod "rollcall/internal/services/monitor/module"
)

func main() {
	var (
		fInterval = flag.Duration("interval", 0, "polling interval (overrides CORE_MONITOR_INTERVAL_SECONDS)")
		fWindow   = flag.Duration("window", 0, "online window (overrides CORE_MONITOR_ONLINE_WINDOW_SECONDS)")
		fSink     = flag.String("sink", "", "sink backend: sheets | postgres | clickhouse")
		fLocation = flag.String("location", "", "location backend: mysql | postgres")
		fQuiet    = flag.Bool("quiet", false, "do not render the console table")
		fOps      = flag.String("ops-addr", "", "ops http listen address (overrides CORE_OPS_ADDR)")
		fVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *fVersion {
		fmt.Println(version.Info())
		return
	}

	root := config.New()
	opsCfg := root.Prefix("CORE_OPS_")
	l := logger.Get()

	opts, err := monmod.Resolve(root, monmod.Overrides{
		Interval:  *fInterval,
		Window:    *fWindow,
		Sink:      *fSink,
		Location:  *fLocation,
		NoConsole: *fQuiet,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, storeConfig(root, opts), store.WithLogger(l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	mon, err := monmod.New(ctx, modkit.FromStore(l, root, st), opts,
		modkit.WithPrefix(opsCfg.MayString("PREFIX", "")),
		modkit.WithMiddlewares(middleware.Timeout(opsCfg.MayDuration("TIMEOUT", 10*time.Second))),
	)
	if err != nil {
		l.Fatal().Err(err).Msg("monitor init failed")
	}
	mon.LogBanner(l)

	opsErr := make(chan error, 1)
	addr := opsCfg.MayString("ADDR", "")
	if *fOps != "" {
		addr = *fOps
	}
	if addr != "" {
		srv := opsServer(opsCfg, addr, mon)
		go func() { opsErr <- srv.Run(ctx) }()
	} else {
		close(opsErr)
	}

	if err := mon.Run(ctx); err != nil {
		// deferred cleanup does not run after Fatal
		stop()
		<-opsErr
		_ = st.Close(context.Background())
		l.Fatal().Err(err).Msg("monitor stopped")
	}
	stop()
	if err := <-opsErr; err != nil {
		l.Error().Err(err).Msg("ops http failed")
	}
	l.Info().Msg("stopped by signal")
}

// opsServer builds the ops listener with every module's routes mounted
func opsServer(c config.Conf, addr string, mods ...modkit.Module) *phttp.Server {
	srv := phttp.NewServer(phttp.Options{
		Addr:        addr,
		CORSOrigins: c.MayCSV("CORS_ORIGINS", nil),
		Slow:        c.MayDuration("SLOW", 500*time.Millisecond),
	})
	for _, m := range mods {
		m.MountRoutes(srv.Router())
		logger.Get().Info().Str("module", m.Name()).Str("addr", addr).Msg("ops routes mounted")
	}
	return srv
}

// storeConfig enables only the stores the chosen backends use
func storeConfig(root config.Conf, opts monmod.Options) store.Config {
	pg, mysql, ch := opts.Backends()
	cfg := store.Config{AppName: version.Info().Service}

	if pg {
		c := root.Prefix("SERVICE_PGSQL_")
		cfg.PG = store.PGConfig{
			Enabled:     true,
			URL:         c.MustString("DBURL"),
			MaxConns:    int32(c.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: c.MayInt("SLOW_MS", 500),
			LogSQL:      c.MayBool("LOG_SQL", false),
		}
	}
	if mysql {
		c := root.Prefix("SERVICE_MYSQL_")
		cfg.MySQL = store.MySQLConfig{
			Enabled:         true,
			DSN:             c.MustString("DSN"),
			MaxOpenConns:    c.MayInt("MAX_OPEN_CONNS", 4),
			ConnMaxLifetime: c.MayDuration("CONN_MAX_LIFETIME", 5*time.Minute),
			SlowQueryMs:     c.MayInt("SLOW_MS", 500),
			LogSQL:          c.MayBool("LOG_SQL", false),
		}
	}
	if ch {
		c := root.Prefix("SERVICE_CLICKHOUSE_")
		cfg.CH = store.CHConfig{
			Enabled: true,
			URL:     c.MustString("DBURL"),
		}
	}
	return cfg
}
