package path

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/tailored-agentic-units/pathwatch/notify"
)

var propertyGetterType = reflect.TypeFor[notify.PropertyGetter]()

// Parse resolves a dotted property expression against the type of root. It
// returns an *Error for anything other than a chain of property accesses:
// method calls, indexers, empty hops and unknown members.
func Parse(root any, expr string) (Path, error) {
	if t, ok := root.(reflect.Type); ok {
		return ParseType(t, expr)
	}
	return ParseType(reflect.TypeOf(root), expr)
}

// ParseType is Parse for a root type known ahead of time. A nil rootType
// makes every segment dynamic.
func ParseType(rootType reflect.Type, expr string) (Path, error) {
	text := strings.TrimSpace(expr)
	if text == "" {
		return Path{}, &Error{Kind: ErrEmpty, Path: expr}
	}

	tokens := strings.Split(text, ".")
	segs := make([]Segment, 0, len(tokens))
	declaring := rootType
	dynamic := rootType == nil

	for _, token := range tokens {
		name := strings.TrimSpace(token)
		if err := checkToken(name, text); err != nil {
			return Path{}, err
		}

		if dynamic {
			segs = append(segs, Dynamic(name))
			continue
		}

		seg, err := resolve(declaring, name, text)
		if err != nil {
			return Path{}, err
		}
		segs = append(segs, seg)

		declaring = seg.Type
		dynamic = seg.IsDynamic()
	}

	p := New(text, segs...)
	p.Root = rootType
	return p, nil
}

// MustParse is Parse that panics on error. Intended for package-level paths
// in tests and examples.
func MustParse(root any, expr string) Path {
	p, err := Parse(root, expr)
	if err != nil {
		panic(err)
	}
	return p
}

func checkToken(name, text string) error {
	notProperty := func(detail string) error {
		return &Error{Kind: ErrNotProperty, Segment: name, Path: text, Detail: detail}
	}

	switch {
	case name == "":
		return notProperty("empty member access")
	case strings.ContainsAny(name, "()"):
		return notProperty("method calls are not supported")
	case strings.ContainsAny(name, "[]"):
		return notProperty("indexers are not supported")
	}

	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return notProperty("not an identifier")
	}
	return nil
}

// resolve finds name on t. A type implementing notify.PropertyGetter owns its
// whole namespace, so every name on it is a dynamic property even when a Go
// field or method shares it. Otherwise name must be an exported field or a
// niladic getter method.
func resolve(t reflect.Type, name, text string) (Segment, error) {
	if t.Implements(propertyGetterType) {
		seg := Dynamic(name)
		seg.DeclaringType = t
		return seg, nil
	}
	if seg, ok := resolveField(t, name); ok {
		return seg, nil
	}
	if seg, ok := resolveGetter(t, name); ok {
		return seg, nil
	}
	if _, ok := t.MethodByName(name); ok {
		return Segment{}, &Error{
			Kind:     ErrNotProperty,
			Segment:  name,
			TypeName: t.String(),
			Path:     text,
			Detail:   "method is not a getter",
		}
	}
	return Segment{}, &Error{
		Kind:     ErrUnknownProperty,
		Segment:  name,
		TypeName: t.String(),
		Path:     text,
	}
}

func resolveField(t reflect.Type, name string) (Segment, bool) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return Segment{}, false
	}

	field, ok := base.FieldByName(name)
	if !ok || !field.IsExported() {
		return Segment{}, false
	}

	index := field.Index
	get := func(source any) (any, bool) {
		rv := reflect.ValueOf(source)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, false
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil, false
		}
		fv, err := rv.FieldByIndexErr(index)
		if err != nil {
			return nil, false
		}
		return fv.Interface(), true
	}

	return NewSegment(name, t, field.Type, get), true
}

func resolveGetter(t reflect.Type, name string) (Segment, bool) {
	method, ok := t.MethodByName(name)
	if !ok {
		return Segment{}, false
	}

	fn := method.Type
	params := fn.NumIn()
	if t.Kind() != reflect.Interface {
		params-- // receiver
	}
	if params != 0 || fn.NumOut() != 1 {
		return Segment{}, false
	}

	get := func(source any) (any, bool) {
		m := reflect.ValueOf(source).MethodByName(name)
		if !m.IsValid() {
			return nil, false
		}
		return m.Call(nil)[0].Interface(), true
	}

	return NewSegment(name, t, fn.Out(0), get), true
}
