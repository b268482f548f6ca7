// Package modkit provides module wiring and core deps
package modkit

import (
	"rollcall/internal/modkit/repokit"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log   *logger.Logger
	Cfg   config.Conf
	PG    repokit.TxRunner
	MySQL repokit.TxRunner
	CH    store.Clickhouse
}

// FromStore copies the opened backends of st into deps. Backends that were
// not enabled stay nil
func FromStore(log *logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st == nil {
		return d
	}
	d.PG, d.MySQL, d.CH = st.PG, st.MySQL, st.CH
	return d
}

// Logger returns Log or the process logger when unset
func (d Deps) Logger() *logger.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logger.Get()
}
