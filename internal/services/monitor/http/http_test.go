package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	phttp "rollcall/internal/platform/net/http"
	"rollcall/internal/services/monitor/domain"

	"github.com/prometheus/client_golang/prometheus"
)

type fakeStatus struct{ st domain.Status }

func (f fakeStatus) Status() domain.Status { return f.st }

type pingFunc func(context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func serve(t *testing.T, d Deps, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := phttp.NewServer(phttp.Options{})
	Register(srv.Router(), d)
	rec := httptest.NewRecorder()
	srv.Router().Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := serve(t, Deps{StartedAt: time.Now()}, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
	if got := decode[HealthResponse](t, rec); !got.OK || got.Service != "rollcall-monitor" {
		t.Fatalf("health body %+v", got)
	}
}

func TestReady(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })
	booted := fakeStatus{st: domain.Status{Bootstrapped: true}}

	cases := []struct {
		name   string
		deps   Deps
		want   int
		checks int
	}{
		{"all ok", Deps{Status: booted, Checks: map[string]Pinger{"mysql": ok, "pg": ok}}, http.StatusOK, 2},
		{"store down", Deps{Status: booted, Checks: map[string]Pinger{"mysql": ok, "ch": down}}, http.StatusServiceUnavailable, 2},
		{"not bootstrapped", Deps{Status: fakeStatus{}, Checks: map[string]Pinger{"mysql": ok}}, http.StatusServiceUnavailable, 1},
		{"no checks", Deps{Status: booted}, http.StatusOK, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := serve(t, c.deps, "/ready")
			if rec.Code != c.want {
				t.Fatalf("ready = %d, want %d (%s)", rec.Code, c.want, rec.Body.String())
			}
			got := decode[ReadyResponse](t, rec)
			if len(got.Checks) != c.checks {
				t.Fatalf("checks %+v", got.Checks)
			}
		})
	}
}

func TestReady_ChecksSortedWithErrors(t *testing.T) {
	down := pingFunc(func(context.Context) error { return errors.New("refused") })
	ok := pingFunc(func(context.Context) error { return nil })
	rec := serve(t, Deps{
		Status: fakeStatus{st: domain.Status{Bootstrapped: true}},
		Checks: map[string]Pinger{"pg": ok, "ch": down},
	}, "/ready")

	got := decode[ReadyResponse](t, rec)
	if got.Status != "fail" || got.Checks[0].Name != "ch" || got.Checks[0].Error != "refused" || got.Checks[1].Status != "ok" {
		t.Fatalf("ready body %+v", got)
	}
}

func TestStatus(t *testing.T) {
	last := &domain.TickReport{ID: "t-1", State: domain.StateIdle, Emitted: 3}
	rec := serve(t, Deps{Status: fakeStatus{st: domain.Status{
		State: domain.StateIdle, Bootstrapped: true, LedgerSize: 7, Ticks: 4, Last: last,
	}}}, "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[domain.Status](t, rec)
	if got.LedgerSize != 7 || got.Ticks != 4 || got.Last == nil || got.Last.ID != "t-1" || got.Last.Emitted != 3 {
		t.Fatalf("status body %+v", got)
	}
}

func TestVersion(t *testing.T) {
	rec := serve(t, Deps{}, "/version")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "rollcall-monitor") {
		t.Fatalf("version = %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "rollcall_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	rec := serve(t, Deps{Gatherer: reg}, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "rollcall_test_total 3") {
		t.Fatalf("metrics = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, Deps{}, "/metrics")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("metrics without gatherer = %d", rec.Code)
	}
}
