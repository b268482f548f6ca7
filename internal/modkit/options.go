package modkit

import (
	"net/http"
	"strings"
)

// Option adjusts how a module presents itself on the ops surface
type Option func(*Built)

// WithPrefix mounts the module's routes under prefix. Leading and trailing
// slashes are normalized; "" and "/" mean the root
func WithPrefix(prefix string) Option {
	return func(b *Built) {
		p := strings.Trim(strings.TrimSpace(prefix), "/")
		if p == "" {
			b.Prefix = ""
			return
		}
		b.Prefix = "/" + p
	}
}

// WithMiddlewares appends middleware run in front of the module's routes only
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}
