package service

import "sync/atomic"

// Lifetime is the cancellation token of a mounted screen controller.
// Results of calls that complete after End are dropped instead of applied.
// Ending a lifetime never aborts the HTTP call itself.
type Lifetime struct {
	ended atomic.Bool
}

// End marks the owning controller as torn down. It is idempotent.
func (l *Lifetime) End() {
	l.ended.Store(true)
}

// Ended reports whether results must be discarded.
func (l *Lifetime) Ended() bool {
	return l.ended.Load()
}
