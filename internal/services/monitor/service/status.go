package service

import (
	"sync/atomic"

	"rollcall/internal/services/monitor/domain"
)

// statusBox publishes Status snapshots. Only the loop goroutine writes
type statusBox struct {
	p atomic.Pointer[domain.Status]
}

func (b *statusBox) store(st domain.Status) { b.p.Store(&st) }

func (b *statusBox) load() domain.Status {
	if st := b.p.Load(); st != nil {
		return *st
	}
	return domain.Status{State: domain.StateIdle}
}

// update copies the current snapshot, applies fn and publishes the copy
func (b *statusBox) update(fn func(*domain.Status)) {
	st := b.load()
	fn(&st)
	b.store(st)
}

// Status returns the last published loop status
func (s *Svc) Status() domain.Status {
	st := s.status.load()
	if st.Last != nil {
		last := *st.Last
		st.Last = &last
	}
	return st
}

// Bootstrapped reports whether the ledger has been seeded from the sink
func (s *Svc) Bootstrapped() bool { return s.status.load().Bootstrapped }
