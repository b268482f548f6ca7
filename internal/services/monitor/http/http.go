// Package http provides the monitor ops endpoints
package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"rollcall/internal/core/version"
	"rollcall/internal/modkit/httpkit"
	"rollcall/internal/services/monitor/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is satisfied by store seams that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	StartedAt time.Time
	Status    domain.StatusPort
	// Checks are pinged by /ready, keyed by backend name
	Checks   map[string]Pinger
	Gatherer prometheus.Gatherer
	// ReadyTimeout bounds all pings of one /ready call, 2s when zero
	ReadyTimeout time.Duration
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the ops routes
func Register(r httpkit.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{deps: d, now: time.Now}

	httpkit.Probe(r, "/health", h.health)
	r.Probe("/ready", httpkit.Handle(h.ready))
	httpkit.Get(r, "/status", h.status)
	httpkit.Get(r, "/version", h.version)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status       string       `json:"status"` // ok fail
	Bootstrapped bool         `json:"bootstrapped"`
	Checks       []ReadyCheck `json:"checks"`
	Now          string       `json:"now"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: version.Info().Service,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *handlers) ready(r *http.Request) httpkit.Response {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps.Checks))
	for name := range h.deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, 0, len(names))}
	for _, name := range names {
		c := ReadyCheck{Name: name, Status: "ok"}
		if err := h.deps.Checks[name].Ping(ctx); err != nil {
			c.Status, c.Error = "fail", err.Error()
			out.Status = "fail"
		}
		out.Checks = append(out.Checks, c)
	}
	// no ticks before the ledger is seeded
	if h.deps.Status != nil {
		out.Bootstrapped = h.deps.Status.Status().Bootstrapped
	}
	if !out.Bootstrapped {
		out.Status = "fail"
	}
	out.Now = h.now().UTC().Format(time.RFC3339)

	if out.Status != "ok" {
		return httpkit.Unavailable(out)
	}
	return httpkit.OK(out)
}

func (h *handlers) status(_ *http.Request) (any, error) {
	if h.deps.Status == nil {
		return domain.Status{State: domain.StateIdle}, nil
	}
	return h.deps.Status.Status(), nil
}

func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}
