package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
)

// Options configures the ops server
type Options struct {
	Addr        string
	CORSOrigins []string
	// Slow marks requests at or above this duration as warn in the access log
	Slow            time.Duration
	ShutdownTimeout time.Duration
}

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	addr     string
	mux      *chi.Mux
	srv      *stdhttp.Server
	shutdown time.Duration
}

// NewServer builds a server with the default middleware stack mounted.
// opts receive the *chi.Mux so callers can add middleware before routes
func NewServer(opt Options, opts ...func(*chi.Mux)) *Server {
	if opt.Addr == "" {
		opt.Addr = ":9090"
	}
	if opt.ShutdownTimeout <= 0 {
		opt.ShutdownTimeout = 5 * time.Second
	}
	m := chi.NewRouter()
	m.Use(middleware.Defaults(opt.Slow)...)
	if len(opt.CORSOrigins) > 0 {
		m.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins}))
	}
	for _, o := range opts {
		o(m)
	}
	return &Server{
		addr:     opt.Addr,
		mux:      m,
		shutdown: opt.ShutdownTimeout,
		srv: &stdhttp.Server{
			Addr:              opt.Addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router returns a Router facade over the internal chi mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the configured listening address
func (s *Server) Addr() string { return s.addr }

// Run listens on the configured address and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.Named("http")
	log.Info().Str("addr", ln.Addr().String()).Msg("ops http listening")

	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdown)
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("ops http shutdown")
		return err
	}
	<-errc
	log.Info().Msg("ops http stopped")
	return nil
}
