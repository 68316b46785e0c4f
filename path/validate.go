package path

import (
	"fmt"
	"reflect"

	"github.com/tailored-agentic-units/pathwatch/notify"
)

// Variant selects the length rule applied by Validate.
type Variant int

const (
	// FullPath requires more than one segment.
	FullPath Variant = iota
	// SingleProperty requires exactly one segment.
	SingleProperty
)

func (v Variant) String() string {
	switch v {
	case FullPath:
		return "full-path"
	case SingleProperty:
		return "single-property"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// Validated is a Path that passed Validate. It is the only path form the
// chain package accepts.
type Validated struct {
	path    Path
	variant Variant
}

// Validate checks p once, scanning from root to terminal and failing on the
// first violation. Dynamic segments skip the static type checks.
func Validate(p Path, variant Variant) (*Validated, error) {
	n := len(p.Segments)
	if n == 0 {
		return nil, &Error{Kind: ErrEmpty, Path: p.Text}
	}

	switch {
	case variant == FullPath && n == 1:
		return nil, &Error{Kind: ErrTooShort, Segment: p.Segments[0].Name, Path: p.Text}
	case variant == SingleProperty && n > 1:
		return nil, &Error{
			Kind:   ErrTooLong,
			Path:   p.Text,
			Detail: fmt.Sprintf("expected a single property, got %d segments", n),
		}
	}

	for i, seg := range p.Segments {
		if seg.Name == "" || seg.get == nil {
			return nil, &Error{Kind: ErrNotProperty, Segment: seg.Name, Path: p.Text, Detail: "segment has no property accessor"}
		}
		if i == n-1 || seg.IsDynamic() {
			continue
		}
		if isValueKind(seg.Type) {
			return nil, &Error{Kind: ErrValueType, Segment: seg.Name, TypeName: seg.Type.String(), Path: p.Text}
		}
		if !seg.Type.Implements(notify.NotifierType()) {
			return nil, &Error{Kind: ErrNotNotifier, Segment: seg.Name, TypeName: seg.Type.String(), Path: p.Text}
		}
	}

	validated := New(p.Text, p.Segments...)
	validated.Root = p.Root
	return &Validated{path: validated, variant: variant}, nil
}

// Text returns the path text used in error messages.
func (v *Validated) Text() string {
	return v.path.Text
}

// Variant returns the length rule the path was validated against.
func (v *Validated) Variant() Variant {
	return v.variant
}

// Len returns the number of segments.
func (v *Validated) Len() int {
	return len(v.path.Segments)
}

// Segment returns the segment at depth i.
func (v *Validated) Segment(i int) Segment {
	return v.path.Segments[i]
}

// Terminal returns the last segment.
func (v *Validated) Terminal() Segment {
	return v.path.Segments[len(v.path.Segments)-1]
}

// Root returns the root type the path was parsed against, or nil.
func (v *Validated) Root() reflect.Type {
	return v.path.Root
}

func (v *Validated) String() string {
	return v.path.Text
}

func isValueKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.UnsafePointer:
		return false
	default:
		return true
	}
}
