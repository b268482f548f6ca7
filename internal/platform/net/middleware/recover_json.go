package middleware

import (
	"encoding/json"
	stdhttp "net/http"
	"runtime/debug"

	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/logger"
)

// panicBody mirrors the ops envelope; this package sits below net/http and
// cannot import it
type panicBody struct {
	StatusCode int       `json:"status_code"`
	OK         bool      `json:"ok"`
	RequestID  string    `json:"request_id,omitempty"`
	Error      perr.Wire `json:"error"`
}

// RecoverJSON turns a handler panic into a 500 envelope and logs the stack.
// http.ErrAbortHandler is re-raised so the server can drop the connection
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			switch v {
			case nil:
				return
			case stdhttp.ErrAbortHandler:
				panic(v)
			}
			logger.C(r.Context()).Error().
				Str("path", r.URL.Path).
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("ops handler panicked")

			rid := ReqID(r)
			if rid != "" {
				w.Header().Set("X-Request-ID", rid)
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(stdhttp.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(panicBody{
				StatusCode: stdhttp.StatusInternalServerError,
				RequestID:  rid,
				Error:      perr.WireFrom(perr.New(perr.ErrorCodeUnknown, "internal error")),
			})
		}()
		next.ServeHTTP(w, r)
	})
}
