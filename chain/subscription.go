package chain

import "sync/atomic"

// Subscription is one listener attached to a Walker.
type Subscription struct {
	id     uint64
	walker *Walker
	fn     func(Notification)
	active atomic.Bool
}

// Dispose detaches this listener only; the walker and its other
// subscriptions are unaffected. It is safe to call more than once, including
// from inside the listener. A notification already being delivered on
// another goroutine may still complete.
func (s *Subscription) Dispose() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}
	s.walker.removeSubscription(s)
}

// Active reports whether the subscription still receives notifications.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

func (s *Subscription) deliver(n Notification) bool {
	if !s.active.Load() {
		return false
	}
	s.fn(n)
	return true
}
