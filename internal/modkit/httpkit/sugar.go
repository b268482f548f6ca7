package httpkit

import (
	"net/http"

	phttp "rollcall/internal/platform/net/http"
)

// Call adapts a value-or-error func to a Handler writing the envelope
func Call(h func(*http.Request) (any, error)) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := h(r)
		if err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		phttp.RespondOK(w, r, v)
	}
}

// Get registers h for GET
func Get(r Router, path string, h func(*http.Request) (any, error)) { r.Get(path, Call(h)) }

// Probe registers h for GET and HEAD
func Probe(r Router, path string, h func(*http.Request) (any, error)) { r.Probe(path, Call(h)) }
