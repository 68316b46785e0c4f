// Package path describes and validates property paths.
//
// A Path is an ordered list of Segments, one per property hop from a root
// object to the terminal property. Paths are usually built by Parse, which
// resolves a dotted expression such as "Order.Customer.Name" against the root
// type using reflection:
//
//	p, err := path.Parse(root, "Order.Customer.Name")
//	validated, err := path.Validate(p, path.FullPath)
//
// A property is an exported struct field, a niladic getter method with one
// result, or (for objects implementing notify.PropertyGetter) a property
// looked up by name at runtime. Segments resolved at runtime are dynamic: their
// Type is nil and their type checks happen when values are observed.
package path

import (
	"reflect"
	"strings"

	"github.com/tailored-agentic-units/pathwatch/notify"
)

// Getter reads a property from source. It reports false when the property
// cannot be read from source.
type Getter func(source any) (value any, ok bool)

// Segment is one property hop. Segments are immutable once built.
type Segment struct {
	Name           string
	DeclaringType  reflect.Type // nil for dynamic segments
	Type           reflect.Type // nil for dynamic segments
	Terminal       bool
	RequiresNotify bool

	get Getter
}

// NewSegment builds a segment reading name through get. Terminal and
// RequiresNotify are assigned when the segment is placed in a Path.
func NewSegment(name string, declaring, typ reflect.Type, get Getter) Segment {
	return Segment{
		Name:          name,
		DeclaringType: declaring,
		Type:          typ,
		get:           get,
	}
}

// Dynamic builds a segment resolved through notify.PropertyGetter.
func Dynamic(name string) Segment {
	return NewSegment(name, nil, nil, dynamicGetter(name))
}

// IsDynamic reports whether the segment's type is only known at runtime.
func (s Segment) IsDynamic() bool {
	return s.Type == nil
}

// Get reads the segment's property from source. A nil source or an
// unreadable property yields false.
func (s Segment) Get(source any) (any, bool) {
	if s.get == nil || notify.IsNil(source) {
		return nil, false
	}
	return s.get(source)
}

// Path is an unvalidated sequence of segments together with the text it was
// built from.
type Path struct {
	Text     string
	Root     reflect.Type
	Segments []Segment
}

// New assembles a Path from segments, marking the last one terminal and
// every other one as requiring the notify capability. When text is empty it
// is derived from the segment names.
func New(text string, segments ...Segment) Path {
	segs := make([]Segment, len(segments))
	copy(segs, segments)
	for i := range segs {
		segs[i].Terminal = i == len(segs)-1
		segs[i].RequiresNotify = !segs[i].Terminal
	}
	if text == "" {
		text = joinNames(segs)
	}
	return Path{Text: text, Segments: segs}
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.Segments)
}

func (p Path) String() string {
	return p.Text
}

func joinNames(segs []Segment) string {
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = s.Name
	}
	return strings.Join(names, ".")
}

func dynamicGetter(name string) Getter {
	return func(source any) (any, bool) {
		pg, ok := source.(notify.PropertyGetter)
		if !ok {
			return nil, false
		}
		return pg.Property(name)
	}
}
