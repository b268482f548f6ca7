package http_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "rollcall/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestNewServer_DefaultsAndRouting(t *testing.T) {
	optCalled := false
	srv := phttp.NewServer(phttp.Options{}, func(*chi.Mux) { optCalled = true })
	if !optCalled {
		t.Fatal("expected option hook to run")
	}
	if srv.Addr() != ":9090" {
		t.Fatalf("expected default addr, got %q", srv.Addr())
	}

	r := srv.Router()
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })
	r.Route("/v1", func(sub phttp.Router) {
		sub.Get("/a", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "a") })
	})
	r.Group(func(g phttp.Router) {
		g.Probe("/h", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	})

	for path, want := range map[string]string{"/ping": "pong", "/v1/a": "a"} {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("%s: %d %q", path, rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s: expected request id header from default middleware", path)
		}
	}

	for _, m := range []string{http.MethodGet, http.MethodHead} {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(m, "/h", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("probe %s: %d", m, rec.Code)
		}
	}
}

func TestNewServer_CORSMountedWhenOriginsSet(t *testing.T) {
	srv := phttp.NewServer(phttp.Options{CORSOrigins: []string{"https://ops.example.com"}})
	srv.Router().Get("/status", func(w http.ResponseWriter, _ *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	rec := httptest.NewRecorder()
	srv.Router().Mux().ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://ops.example.com" {
		t.Fatalf("expected CORS header, got %v", rec.Header())
	}
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := phttp.NewServer(phttp.Options{Addr: ln.Addr().String(), ShutdownTimeout: time.Second})
	srv.Router().Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/ping"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunBadAddr(t *testing.T) {
	srv := phttp.NewServer(phttp.Options{Addr: "256.0.0.1:bad"})
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
