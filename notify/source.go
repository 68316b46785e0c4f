package notify

import (
	"slices"
	"sync"
)

type registration struct {
	id      uint64
	handler Handler
}

// Source is an embeddable Notifier implementation. The zero value is ready
// to use. Handlers run synchronously, in registration order, on the goroutine
// that raises the change; they are invoked outside Source's lock so a handler
// may register or remove handlers on the same Source.
type Source struct {
	mu       sync.Mutex
	handlers []registration
	nextID   uint64
}

// OnPropertyChanged registers handler. The returned function removes it and
// is idempotent.
func (s *Source) OnPropertyChanged(handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, registration{id: id, handler: handler})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// RaisePropertyChanged delivers a change of name on sender to every
// registered handler. Handlers removed while the raise is in flight may still
// receive this one event.
func (s *Source) RaisePropertyChanged(sender any, name string) {
	s.mu.Lock()
	snapshot := slices.Clone(s.handlers)
	s.mu.Unlock()

	event := PropertyChangedEvent{Sender: sender, PropertyName: name}
	for _, reg := range snapshot {
		reg.handler(event)
	}
}

// HandlerCount returns the number of registered handlers.
func (s *Source) HandlerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

func (s *Source) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = slices.DeleteFunc(s.handlers, func(r registration) bool {
		return r.id == id
	})
}

// Set assigns value to *field and raises a change of name on sender when the
// value actually changed. It reports whether a change was raised.
func Set[T comparable](s *Source, sender any, field *T, value T, name string) bool {
	if *field == value {
		return false
	}
	*field = value
	s.RaisePropertyChanged(sender, name)
	return true
}
