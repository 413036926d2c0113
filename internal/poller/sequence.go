package poller

import "sync/atomic"

// Sequence hands out increasing cycle numbers starting at 1. It is shared
// between a scheduler and any cycles started outside it, so every cycle of
// a dashboard is totally ordered.
type Sequence struct {
	n atomic.Uint64
}

// Next returns the next sequence number.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the last number handed out, 0 if none.
func (s *Sequence) Current() uint64 {
	return s.n.Load()
}
