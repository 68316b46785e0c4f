package observability

import "context"

// MultiObserver fans out events to multiple observers in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver over the non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{}
	for _, obs := range observers {
		m.Add(obs)
	}
	return m
}

// Add appends obs unless it is nil. It must not be called while events are
// being emitted.
func (m *MultiObserver) Add(obs Observer) {
	if obs != nil {
		m.observers = append(m.observers, obs)
	}
}

// Len returns the number of wrapped observers.
func (m *MultiObserver) Len() int {
	return len(m.observers)
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// LevelFilter forwards events at or above Min to Next. Walkers emit
// lifecycle events at LevelVerbose and overflow or unobservable-node
// events at LevelWarning, so a LevelWarning filter keeps only the latter.
type LevelFilter struct {
	Min  Level
	Next Observer
}

func (f LevelFilter) OnEvent(ctx context.Context, event Event) {
	if f.Next == nil || event.Level < f.Min {
		return
	}
	f.Next.OnEvent(ctx, event)
}
