// Package maybe provides an explicit "resolved value or unresolved" type.
//
// A Maybe distinguishes a path that resolved to a nil value from a path that
// could not be resolved at all because an intermediate link was nil:
//
//	maybe.None[*int]() != maybe.Some[*int](nil)
package maybe

import (
	"fmt"
	"reflect"
)

// Maybe holds either a value (Some) or nothing (None). The zero Maybe is None.
// When T is comparable, Maybe[T] is comparable with == and two values are
// equal exactly when both are None or both are Some with equal values.
type Maybe[T any] struct {
	value T
	ok    bool
}

// Some returns a Maybe holding value. A nil value is still Some.
func Some[T any](value T) Maybe[T] {
	return Maybe[T]{value: value, ok: true}
}

// None returns an empty Maybe.
func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// HasValue reports whether m is Some.
func (m Maybe[T]) HasValue() bool {
	return m.ok
}

// Get returns the held value and true, or the zero value and false.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.ok
}

// Value returns the held value. It panics when m is None.
func (m Maybe[T]) Value() T {
	if !m.ok {
		panic("maybe: Value called on None")
	}
	return m.value
}

// ValueOr returns the held value, or fallback when m is None.
func (m Maybe[T]) ValueOr(fallback T) T {
	if !m.ok {
		return fallback
	}
	return m.value
}

// Equal reports structural equality using reflect.DeepEqual on the held values.
func (m Maybe[T]) Equal(other Maybe[T]) bool {
	if m.ok != other.ok {
		return false
	}
	if !m.ok {
		return true
	}
	return reflect.DeepEqual(m.value, other.value)
}

func (m Maybe[T]) String() string {
	if !m.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", m.value)
}

// Map applies fn to the held value of m, propagating None.
func Map[T, U any](m Maybe[T], fn func(T) U) Maybe[U] {
	if !m.ok {
		return None[U]()
	}
	return Some(fn(m.value))
}

// Cast converts a Maybe[any] into a Maybe[T]. A held nil converts to Some of
// the nil T when T can be nil; a held nil for any other T, or a held value
// that is not a T, yields None and false.
func Cast[T any](m Maybe[any]) (Maybe[T], bool) {
	if !m.ok {
		return None[T](), true
	}
	if m.value == nil {
		if !nilable(reflect.TypeFor[T]()) {
			return None[T](), false
		}
		var zero T
		return Some(zero), true
	}
	v, ok := m.value.(T)
	if !ok {
		return None[T](), false
	}
	return Some(v), true
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}
