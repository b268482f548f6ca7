package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func ptr[T any](v T) *T { return &v }

func TestWithLogger_TagsComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s, err := Open(context.Background(), Config{}, WithLogger(ptr(zerolog.New(&buf))))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Log.Info().Msg("hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"store"`)) {
		t.Fatalf("store logger missing component: %s", buf.String())
	}
}

func TestWithLogger_NilKeepsZero(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{}, WithLogger(nil))
	if err != nil || s == nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG != nil || s.MySQL != nil || s.CH != nil {
		t.Fatalf("no backend was enabled: %+v", s)
	}
}
