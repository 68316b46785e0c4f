// Package notify defines the notify-capable object contract observed by
// property paths.
//
// An object is notify-capable when it implements Notifier: callers register a
// Handler and receive a PropertyChangedEvent whenever one of the object's
// properties changes. An empty PropertyName (AllProperties) is a wildcard
// meaning every property on the sender should be treated as changed.
//
// Types usually embed Source to satisfy Notifier:
//
//	type Person struct {
//	    notify.Source
//	    name string
//	}
//
//	func (p *Person) SetName(name string) {
//	    notify.Set(&p.Source, p, &p.name, name, "Name")
//	}
package notify

import "reflect"

// AllProperties is the wildcard property name. A change event carrying it
// applies to every property of the sender.
const AllProperties = ""

// PropertyChangedEvent describes one change raised by a notify-capable object.
type PropertyChangedEvent struct {
	Sender       any
	PropertyName string
}

// IsWildcard reports whether the event applies to every property.
func (e PropertyChangedEvent) IsWildcard() bool {
	return e.PropertyName == AllProperties
}

// Handler receives property change events.
type Handler func(event PropertyChangedEvent)

// Notifier is implemented by notify-capable objects. OnPropertyChanged
// registers handler and returns a function that removes it again. The
// returned function must be safe to call more than once.
type Notifier interface {
	OnPropertyChanged(handler Handler) (unsubscribe func())
}

// PropertyGetter is implemented by objects whose properties are looked up by
// name at runtime rather than through struct fields or getter methods.
type PropertyGetter interface {
	Property(name string) (value any, ok bool)
}

// Matches reports whether a change to eventName affects property.
func Matches(eventName, property string) bool {
	return eventName == AllProperties || eventName == property
}

var notifierType = reflect.TypeFor[Notifier]()

// NotifierType returns the reflect.Type of the Notifier interface.
func NotifierType() reflect.Type {
	return notifierType
}

// IsNil reports whether v is nil, including typed nil pointers, maps, slices,
// channels, funcs and interfaces stored in an interface value.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// Same reports whether a and b hold the same instance. Pointer-like values
// compare by identity; other comparable values compare with ==. Values of
// uncomparable types are never the same.
func Same(a, b any) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	if !ta.Comparable() {
		return false
	}
	return a == b
}
