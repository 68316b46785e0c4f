package path

import (
	"errors"
	"fmt"
)

// Sentinel kinds carried by *Error. Use errors.Is to test for them.
var (
	ErrEmpty           = errors.New("empty path")
	ErrNotProperty     = errors.New("non-property expression")
	ErrUnknownProperty = errors.New("unknown property")
	ErrValueType       = errors.New("value-typed intermediate")
	ErrNotNotifier     = errors.New("non-notifying intermediate")
	ErrTooShort        = errors.New("path too short")
	ErrTooLong         = errors.New("path too long")
	ErrRootNotNotifier = errors.New("non-notifying root")
	ErrTypeMismatch    = errors.New("terminal type mismatch")
)

// Error reports an unsupported path shape. The message has two lines: what
// is wrong, then the full path text.
type Error struct {
	Kind     error  // one of the Err* sentinels
	Segment  string // offending segment name, if any
	TypeName string // declaring or offending type name, if any
	Path     string // full path text
	Detail   string // kind-specific context
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s\nThe path is: %s", e.reason(), e.Path)
}

// Unwrap returns the sentinel kind so errors.Is matches it.
func (e *Error) Unwrap() error {
	return e.Kind
}

func (e *Error) reason() string {
	switch e.Kind {
	case ErrEmpty:
		return "path has no segments"
	case ErrNotProperty:
		return fmt.Sprintf("%q is not a property access: %s", e.Segment, e.Detail)
	case ErrUnknownProperty:
		return fmt.Sprintf("type %s has no exported field, getter or dynamic property named %q", e.TypeName, e.Segment)
	case ErrValueType:
		return fmt.Sprintf("property %q has value type %s; intermediate links must be pointer or interface types", e.Segment, e.TypeName)
	case ErrNotNotifier:
		return fmt.Sprintf("property %q has type %s, which does not implement notify.Notifier", e.Segment, e.TypeName)
	case ErrTooShort:
		return "expected a path with more than one segment; observe a single property instead"
	case ErrTooLong:
		return fmt.Sprintf("path has too many segments: %s", e.Detail)
	case ErrRootNotNotifier:
		return fmt.Sprintf("root of type %s does not implement notify.Notifier", e.TypeName)
	case ErrTypeMismatch:
		return fmt.Sprintf("terminal property %q has type %s, which is not assignable to %s", e.Segment, e.TypeName, e.Detail)
	default:
		return fmt.Sprintf("invalid path: %v", e.Kind)
	}
}
