package observability

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownObserver is returned by GetObserver for names nothing was
// registered under.
var ErrUnknownObserver = errors.New("unknown observer")

// Factory builds the observer registered under a name. It runs on the first
// lookup of that name and must not look up observers itself.
type Factory func() (Observer, error)

type registration struct {
	factory  Factory
	observer Observer
}

// Pre-registered:
//   - "noop" discards events
//   - "slog" logs to whatever slog.Default is when each event is emitted
//   - "otel" counts events on the global MeterProvider, built on first use
var (
	registry = map[string]*registration{
		"noop": {observer: NoOpObserver{}},
		"slog": {observer: NewSlogObserver(nil)},
		"otel": {factory: func() (Observer, error) {
			obs, err := NewOTelObserver(nil)
			if err != nil {
				return nil, err
			}
			return obs, nil
		}},
	}
	mutex sync.Mutex
)

// GetObserver returns the observer registered under name, building it from
// its factory on first use. A failed build is not cached.
func GetObserver(name string) (Observer, error) {
	mutex.Lock()
	defer mutex.Unlock()

	reg, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q (registered: %s)",
			ErrUnknownObserver, name, strings.Join(observerNames(), ", "))
	}
	if reg.observer != nil {
		return reg.observer, nil
	}

	obs, err := reg.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to build observer %q: %w", name, err)
	}
	reg.observer = obs
	return obs, nil
}

// RegisterObserver adds or replaces a named observer.
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()

	registry[name] = &registration{observer: observer}
}

// RegisterFactory adds or replaces a named observer that is built on its
// first lookup.
func RegisterFactory(name string, factory Factory) {
	mutex.Lock()
	defer mutex.Unlock()

	registry[name] = &registration{factory: factory}
}

// Observers returns the registered names in sorted order.
func Observers() []string {
	mutex.Lock()
	defer mutex.Unlock()
	return observerNames()
}

func observerNames() []string {
	return slices.Sorted(maps.Keys(registry))
}
