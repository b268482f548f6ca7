// Package http is the ops listener: a chi-backed router seam, the server
// lifecycle, and the JSON envelope every ops endpoint answers with
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/net/middleware"
)

// Envelope wraps every ops payload. Exactly one of Data and Error is set
type Envelope struct {
	StatusCode int        `json:"status_code"`
	OK         bool       `json:"ok"`
	RequestID  string     `json:"request_id,omitempty"`
	Error      *perr.Wire `json:"error,omitempty"`
	Data       any        `json:"data,omitempty"`
}

// JSON writes v with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func envelope(r *stdhttp.Request, status int) Envelope {
	return Envelope{StatusCode: status, OK: status < 400, RequestID: middleware.ReqID(r)}
}

// RespondOK writes data under 200
func RespondOK(w stdhttp.ResponseWriter, r *stdhttp.Request, data any) {
	RespondStatus(w, r, stdhttp.StatusOK, data)
}

// RespondStatus writes data under status. A status of 400 or more marks the
// envelope not ok while still carrying data, which is how /ready reports
// the failing check
func RespondStatus(w stdhttp.ResponseWriter, r *stdhttp.Request, status int, data any) {
	env := envelope(r, status)
	env.Data = data
	JSON(w, status, env)
}

// RespondError writes err at its mapped status
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status := perr.HTTPStatus(err)
	wire := perr.WireFrom(err)
	env := envelope(r, status)
	env.Error = &wire
	JSON(w, status, env)
}

// Response is what a return-style handler hands back. An error Body is
// written through RespondError and Status is ignored
type Response struct {
	Status int
	Body   any
}

// Handle adapts a return-style handler
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		resp := h(r)
		if err, ok := resp.Body.(error); ok && err != nil {
			RespondError(w, r, err)
			return
		}
		if resp.Status == 0 {
			resp.Status = stdhttp.StatusOK
		}
		RespondStatus(w, r, resp.Status, resp.Body)
	}
}

// OK is a 200 Response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Unavailable is a 503 Response that keeps its payload
func Unavailable(data any) Response {
	return Response{Status: stdhttp.StatusServiceUnavailable, Body: data}
}

// Error is a Response for err
func Error(err error) Response { return Response{Body: err} }
