package testkit

import (
	"sync"
	"testing"
)

var (
	seamMu   sync.Mutex
	seamHeld sync.Map
)

// Seam replaces a package-level variable for the rest of the test and puts
// the original back on cleanup. Tests holding a seam run one at a time; a
// test may take several seams, but a subtest must not take one while its
// parent holds any
func Seam[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	hold(t)
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

func hold(t *testing.T) {
	if _, ok := seamHeld.Load(t); ok {
		return
	}
	seamMu.Lock()
	seamHeld.Store(t, struct{}{})
	t.Cleanup(func() {
		seamHeld.Delete(t)
		seamMu.Unlock()
	})
}
