// Package httpkit is the slice of the platform http package that monitor
// handlers are allowed to touch
package httpkit

import (
	"net/http"

	phttp "rollcall/internal/platform/net/http"
)

// Router, Handler and Response are the platform types under local names
type (
	Router   = phttp.Router
	Handler  = phttp.Handler
	Response = phttp.Response
)

// Handle turns a Response-returning func into a Handler. Use it when the
// status depends on the payload, as /ready does
func Handle(h func(r *http.Request) Response) Handler { return phttp.Handle(h) }

// OK is a 200 with data as the envelope body
func OK(data any) Response { return phttp.OK(data) }

// Unavailable is a 503 that still carries data, so a failing probe can say
// which check failed
func Unavailable(data any) Response { return phttp.Unavailable(data) }

// Error is the envelope for err at its mapped status
func Error(err error) Response { return phttp.Error(err) }
