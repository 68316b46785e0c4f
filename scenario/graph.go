package scenario

import (
	"fmt"
	"maps"
	"slices"

	"github.com/tailored-agentic-units/pathwatch/notify"
)

// Graph holds the objects a scenario declares, by name.
type Graph struct {
	objects map[string]*notify.Object
}

// Build creates the scenario's objects and assigns their initial
// properties. Nothing observes the objects yet, so no change is delivered.
func Build(s *Scenario) (*Graph, error) {
	g := &Graph{objects: make(map[string]*notify.Object, len(s.Objects))}
	for name := range s.Objects {
		g.objects[name] = notify.NewObject(name)
	}

	for _, name := range slices.Sorted(maps.Keys(s.Objects)) {
		for prop, raw := range s.Objects[name] {
			v, err := g.value(raw)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, prop, err)
			}
			g.objects[name].Set(prop, v)
		}
	}
	return g, nil
}

// Object returns the named object, or nil.
func (g *Graph) Object(name string) *notify.Object {
	return g.objects[name]
}

// Apply performs one step on the graph. Any notification it causes is
// delivered before Apply returns.
func (g *Graph) Apply(step Step) error {
	if step.Raise != "" {
		obj, ok := g.objects[step.Raise]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownObject, step.Raise)
		}
		obj.Raise(step.Property)
		return nil
	}

	object, property, ok := step.Target()
	if !ok {
		return fmt.Errorf("%w: set target %q is not object.Property", ErrInvalidStep, step.Set)
	}
	obj, ok := g.objects[object]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownObject, object)
	}

	raw := step.Value
	if step.Ref != "" {
		raw = "@" + step.Ref
	}
	v, err := g.value(raw)
	if err != nil {
		return err
	}
	obj.Set(property, v)
	return nil
}

func (g *Graph) value(raw any) (any, error) {
	ref, ok := reference(raw)
	if !ok {
		return literal(raw), nil
	}
	obj, ok := g.objects[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownObject, ref)
	}
	return obj, nil
}
