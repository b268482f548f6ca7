package repokit

import perr "rollcall/internal/platform/errors"

// Binder attaches a domain store to a concrete Queryer
type Binder[T any] interface {
	Bind(Queryer) T
}

// Bind binds q through b. A nil q means the backend was never opened and is
// reported as unavailable under the given backend name
func Bind[T any](b Binder[T], q Queryer, backend string) (T, error) {
	var zero T
	if q == nil {
		return zero, perr.Unavailablef("%s backend is not open", backend)
	}
	return b.Bind(q), nil
}
