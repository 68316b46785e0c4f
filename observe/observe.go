// Package observe exposes property path observation as typed streams.
//
// Each constructor parses and validates a path, builds a chain.Walker on the
// root and wraps it in a Stream that projects every walker notification into
// one of four shapes:
//
//   - Changes: the raw change event (sender and property name)
//   - Names: the changed property name only
//   - Values: the path's resolved value as maybe.Maybe[T]
//   - ChangesWithValue: the change event together with the resolved value
//
// All construction errors are returned synchronously as *path.Error values.
// A stream owns its walker; Dispose releases every subscription the walker
// holds on the object graph.
//
//	names, err := observe.Names(order, "Customer.Address.City", false)
//	if err != nil {
//	    return err
//	}
//	defer names.Dispose()
//	names.Subscribe(func(name string) { fmt.Println("changed:", name) })
package observe

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/tailored-agentic-units/pathwatch/chain"
	"github.com/tailored-agentic-units/pathwatch/maybe"
	"github.com/tailored-agentic-units/pathwatch/notify"
	"github.com/tailored-agentic-units/pathwatch/observability"
	"github.com/tailored-agentic-units/pathwatch/path"
)

// EventValueMismatch is emitted when a resolved value cannot be converted to
// a Values or ChangesWithValue stream's element type.
const EventValueMismatch observability.EventType = "observe.value_mismatch"

// Change pairs a change event with the value the path resolved to after it.
type Change[T any] struct {
	Sender       any
	PropertyName string
	Value        maybe.Maybe[T]
}

// Stream delivers projected walker notifications to its subscribers.
type Stream[T any] struct {
	walker        *chain.Walker
	signalInitial bool
	project       func(chain.Notification) T
}

func newStream[T any](w *chain.Walker, signalInitial bool, project func(chain.Notification) T) *Stream[T] {
	return &Stream[T]{walker: w, signalInitial: signalInitial, project: project}
}

// Subscribe registers fn. When the stream was created with signalInitial,
// fn receives one notification describing the current state before
// Subscribe returns.
func (s *Stream[T]) Subscribe(fn func(T)) *chain.Subscription {
	return s.walker.Subscribe(func(n chain.Notification) {
		fn(s.project(n))
	}, s.signalInitial)
}

// Dispose tears down the stream's walker and all of its subscriptions.
func (s *Stream[T]) Dispose() {
	s.walker.Dispose()
}

// Walker returns the walker backing the stream.
func (s *Stream[T]) Walker() *chain.Walker {
	return s.walker
}

// Changes streams the raw change events for expr on root.
func Changes(root any, expr string, signalInitial bool, opts ...chain.Option) (*Stream[notify.PropertyChangedEvent], error) {
	p, err := path.Parse(root, expr)
	if err != nil {
		return nil, err
	}
	return ChangesAlong(root, p, signalInitial, opts...)
}

// ChangesAlong is Changes for an already-built path.
func ChangesAlong(root any, p path.Path, signalInitial bool, opts ...chain.Option) (*Stream[notify.PropertyChangedEvent], error) {
	w, err := walk(root, p, path.FullPath, opts)
	if err != nil {
		return nil, err
	}
	return newStream(w, signalInitial, toEvent), nil
}

// PropertyChanges streams raw change events for a single property of root.
func PropertyChanges(root any, name string, signalInitial bool, opts ...chain.Option) (*Stream[notify.PropertyChangedEvent], error) {
	p, err := path.Parse(root, name)
	if err != nil {
		return nil, err
	}
	w, err := walk(root, p, path.SingleProperty, opts)
	if err != nil {
		return nil, err
	}
	return newStream(w, signalInitial, toEvent), nil
}

// Names streams only the changed property names for expr on root.
func Names(root any, expr string, signalInitial bool, opts ...chain.Option) (*Stream[string], error) {
	p, err := path.Parse(root, expr)
	if err != nil {
		return nil, err
	}
	return NamesAlong(root, p, signalInitial, opts...)
}

// NamesAlong is Names for an already-built path.
func NamesAlong(root any, p path.Path, signalInitial bool, opts ...chain.Option) (*Stream[string], error) {
	w, err := walk(root, p, path.FullPath, opts)
	if err != nil {
		return nil, err
	}
	return newStream(w, signalInitial, func(n chain.Notification) string {
		return n.PropertyName
	}), nil
}

// Values streams the value expr resolves to after every change. The static
// type of the terminal property must be assignable to T; dynamic terminals
// are checked per notification and a mismatch yields None.
func Values[T any](root any, expr string, signalInitial bool, opts ...chain.Option) (*Stream[maybe.Maybe[T]], error) {
	p, err := path.Parse(root, expr)
	if err != nil {
		return nil, err
	}
	return ValuesAlong[T](root, p, signalInitial, opts...)
}

// ValuesAlong is Values for an already-built path.
func ValuesAlong[T any](root any, p path.Path, signalInitial bool, opts ...chain.Option) (*Stream[maybe.Maybe[T]], error) {
	w, err := walkTyped[T](root, p, opts)
	if err != nil {
		return nil, err
	}
	return newStream(w, signalInitial, func(n chain.Notification) maybe.Maybe[T] {
		return castValue[T](w, n)
	}), nil
}

// ChangesWithValue streams each change event together with the resolved
// value, typed as in Values.
func ChangesWithValue[T any](root any, expr string, signalInitial bool, opts ...chain.Option) (*Stream[Change[T]], error) {
	p, err := path.Parse(root, expr)
	if err != nil {
		return nil, err
	}
	return ChangesWithValueAlong[T](root, p, signalInitial, opts...)
}

// ChangesWithValueAlong is ChangesWithValue for an already-built path.
func ChangesWithValueAlong[T any](root any, p path.Path, signalInitial bool, opts ...chain.Option) (*Stream[Change[T]], error) {
	w, err := walkTyped[T](root, p, opts)
	if err != nil {
		return nil, err
	}
	return newStream(w, signalInitial, func(n chain.Notification) Change[T] {
		return Change[T]{
			Sender:       n.Sender,
			PropertyName: n.PropertyName,
			Value:        castValue[T](w, n),
		}
	}), nil
}

func walk(root any, p path.Path, variant path.Variant, opts []chain.Option) (*chain.Walker, error) {
	validated, err := path.Validate(p, variant)
	if err != nil {
		return nil, err
	}
	return chain.New(root, validated, opts...)
}

func walkTyped[T any](root any, p path.Path, opts []chain.Option) (*chain.Walker, error) {
	validated, err := path.Validate(p, path.FullPath)
	if err != nil {
		return nil, err
	}
	if err := checkAssignable[T](validated); err != nil {
		return nil, err
	}
	return chain.New(root, validated, opts...)
}

func checkAssignable[T any](v *path.Validated) error {
	terminal := v.Terminal()
	if terminal.IsDynamic() {
		return nil
	}

	target := reflect.TypeFor[T]()
	if terminal.Type.AssignableTo(target) {
		return nil
	}
	return &path.Error{
		Kind:     path.ErrTypeMismatch,
		Segment:  terminal.Name,
		TypeName: terminal.Type.String(),
		Path:     v.Text(),
		Detail:   target.String(),
	}
}

func castValue[T any](w *chain.Walker, n chain.Notification) maybe.Maybe[T] {
	v, ok := maybe.Cast[T](n.Value)
	if ok {
		return v
	}

	w.Observer().OnEvent(context.Background(), observability.Event{
		Type:      EventValueMismatch,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "observe.Stream",
		Data: map[string]any{
			observability.KeyWalker:   w.Name(),
			observability.KeyWalkerID: w.ID(),
			observability.KeyPath:     w.Path().Text(),
			"property":                n.PropertyName,
			"got":                     fmt.Sprintf("%T", n.Value.ValueOr(nil)),
			"want":                    reflect.TypeFor[T]().String(),
		},
	})
	return maybe.None[T]()
}

func toEvent(n chain.Notification) notify.PropertyChangedEvent {
	return notify.PropertyChangedEvent{Sender: n.Sender, PropertyName: n.PropertyName}
}
