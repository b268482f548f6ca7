package modkit

import "net/http"

// Built is the resolved module presentation
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// Build resolves opts over defName. Nil options are skipped and the
// returned middleware slice is never shared with a previous Build
func Build(defName string, opts ...Option) Built {
	b := Built{Name: defName}
	for _, o := range opts {
		if o != nil {
			o(&b)
		}
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	return b
}
