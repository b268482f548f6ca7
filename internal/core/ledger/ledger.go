// Package ledger tracks which identities have already been emitted to the sink
package ledger

import (
	"errors"

	"rollcall/internal/core/anonymize"
)

// ErrAlreadyBootstrapped is returned by a second Bootstrap call
var ErrAlreadyBootstrapped = errors.New("ledger: already bootstrapped")

// Ledger is an in-memory set of emitted tokens.
// It only grows and is not safe for concurrent use: the reconciliation loop owns it
type Ledger struct {
	seen   map[anonymize.Token]struct{}
	booted bool
}

// New returns an empty, not yet bootstrapped ledger
func New() *Ledger {
	return &Ledger{seen: make(map[anonymize.Token]struct{})}
}

// Bootstrap seeds the ledger from the tokens already present in the sink.
// It must run once, before the first cycle
func (l *Ledger) Bootstrap(tokens []anonymize.Token) error {
	if l.booted {
		return ErrAlreadyBootstrapped
	}
	for _, t := range tokens {
		if t == "" {
			continue
		}
		l.seen[t] = struct{}{}
	}
	l.booted = true
	return nil
}

// Bootstrapped reports whether Bootstrap has run
func (l *Ledger) Bootstrapped() bool { return l.booted }

// Contains reports whether t was already emitted
func (l *Ledger) Contains(t anonymize.Token) bool {
	_, ok := l.seen[t]
	return ok
}

// Record marks t as emitted; recording a known token is a no-op
func (l *Ledger) Record(t anonymize.Token) {
	l.seen[t] = struct{}{}
}

// Len returns the number of distinct tokens
func (l *Ledger) Len() int { return len(l.seen) }
