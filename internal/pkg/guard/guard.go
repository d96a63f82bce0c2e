package guard

import "sync/atomic"

// Slot is a single-slot in-flight guard: at most one holder at a time.
// A failed TryAcquire means the protected operation is already running and
// the caller should drop its request, not queue it.
type Slot struct {
	busy atomic.Bool
}

func (s *Slot) TryAcquire() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *Slot) Release() {
	s.busy.Store(false)
}

func (s *Slot) Busy() bool {
	return s.busy.Load()
}
