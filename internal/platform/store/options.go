package store

import "rollcall/internal/platform/logger"

// Option adjusts a Store before any backend is opened
type Option func(*Store) error

// WithLogger hands log to the backends for ping retries and sql tracing.
// A nil log leaves the zero logger, which discards everything
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) error {
		if log != nil {
			s.Log = *log
		}
		return nil
	}
}
