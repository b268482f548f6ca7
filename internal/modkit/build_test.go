package modkit

import (
	"net/http"
	"testing"

	"rollcall/internal/platform/config"
	"rollcall/internal/platform/store"
)

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()
	b := Build("monitor")
	if b.Name != "monitor" || b.Prefix != "" || len(b.Mw) != 0 {
		t.Fatalf("unexpected defaults %+v", b)
	}
}

func TestBuild_OptionsAndCopySemantics(t *testing.T) {
	t.Parallel()
	mw := func(next http.Handler) http.Handler { return next }
	opts := []Option{WithPrefix("/ops"), WithMiddlewares(mw), nil, WithMiddlewares(mw)}
	b := Build("monitor", opts...)
	if b.Name != "monitor" || b.Prefix != "/ops" {
		t.Fatalf("unexpected %+v", b)
	}
	if len(b.Mw) != 2 {
		t.Fatalf("expected 2 middlewares got %d", len(b.Mw))
	}
	b.Mw[0] = nil
	if again := Build("monitor", opts...); again.Mw[0] == nil {
		t.Fatal("Build must copy the middleware slice")
	}
}

func TestWithPrefix_Normalizes(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{"": "", "/": "", "ops": "/ops", "/ops/": "/ops", " /a/b ": "/a/b"} {
		if got := Build("monitor", WithPrefix(in)).Prefix; got != want {
			t.Fatalf("WithPrefix(%q) = %q want %q", in, got, want)
		}
	}
}

func TestFromStore(t *testing.T) {
	t.Parallel()
	cfg := config.New()
	if d := FromStore(nil, cfg, nil); d.PG != nil || d.MySQL != nil || d.CH != nil {
		t.Fatalf("nil store should leave backends nil: %+v", d)
	}
	d := FromStore(nil, cfg, &store.Store{})
	if d.Logger() == nil {
		t.Fatal("Logger should fall back to the process logger")
	}
}
