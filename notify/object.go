package notify

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Object is a concurrency-safe, notify-capable property bag. Its properties
// are resolved by name at runtime through PropertyGetter, which makes it the
// building block for object graphs that are not backed by Go structs.
type Object struct {
	Source

	name  string
	mu    sync.RWMutex
	props map[string]any
}

// NewObject creates an empty Object. The name is used only for display.
func NewObject(name string) *Object {
	return &Object{
		name:  name,
		props: make(map[string]any),
	}
}

// Name returns the display name given to NewObject.
func (o *Object) Name() string {
	return o.name
}

// Property returns the named property and whether it is defined.
func (o *Object) Property(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.props[name]
	return v, ok
}

// Set assigns a property and raises a change for it unless the new value is
// the same instance as the old one. It reports whether a change was raised.
func (o *Object) Set(name string, value any) bool {
	o.mu.Lock()
	old, existed := o.props[name]
	if existed && Same(old, value) {
		o.mu.Unlock()
		return false
	}
	o.props[name] = value
	o.mu.Unlock()

	o.RaisePropertyChanged(o, name)
	return true
}

// Delete removes a property, raising a change if it was defined.
func (o *Object) Delete(name string) bool {
	o.mu.Lock()
	_, existed := o.props[name]
	delete(o.props, name)
	o.mu.Unlock()

	if existed {
		o.RaisePropertyChanged(o, name)
	}
	return existed
}

// Raise signals a change of name without modifying anything. Pass
// AllProperties to signal that every property changed.
func (o *Object) Raise(name string) {
	o.RaisePropertyChanged(o, name)
}

// Keys returns the defined property names in sorted order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Sorted(maps.Keys(o.props))
}

func (o *Object) String() string {
	return fmt.Sprintf("Object(%s)", o.name)
}
