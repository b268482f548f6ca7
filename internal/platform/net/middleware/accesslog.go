// Package middleware holds the ops server middlewares
package middleware

import (
	"net/http"
	"time"

	"rollcall/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow logs requests at or above this duration at warn, 0 disables it
	Slow time.Duration
	// Quiet paths (probes, scrapes) are logged at debug
	Quiet []string
}

// AccessLogZerolog logs one line per ops request through the request scoped logger
func AccessLogZerolog(opt AccessLogOptions) func(http.Handler) http.Handler {
	quiet := make(map[string]struct{}, len(opt.Quiet))
	for _, p := range opt.Quiet {
		quiet[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				elapsed := time.Since(start)
				log := logger.C(r.Context())

				evt := log.Info()
				switch _, q := quiet[r.URL.Path]; {
				case opt.Slow > 0 && elapsed >= opt.Slow:
					evt = log.Warn().Bool("slow", true)
				case q:
					evt = log.Debug()
				}
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				evt.Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", elapsed).
					Msg("ops request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
