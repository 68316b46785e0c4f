// Package scenario drives property path observation from YAML descriptions.
//
// A scenario declares a graph of notify.Object values, a root and a path to
// observe, and a list of steps that mutate the graph. Running it records
// every notification the chosen adapter produces.
//
//	name: reassign-intermediate
//	root: root
//	path: A.B
//	signal_initial: true
//	objects:
//	  root: {A: "@a1"}
//	  a1:   {B: 1}
//	  a2:   {B: 2}
//	steps:
//	  - set: root.A
//	    ref: a2
//	  - set: a1.B
//	    value: 10
//	  - raise: a2
//	    property: B
//
// String property values starting with "@" reference other objects; write
// "@@" for a literal leading "@".
package scenario

import (
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/pathwatch/config"
	"github.com/tailored-agentic-units/pathwatch/notify"
	"github.com/tailored-agentic-units/pathwatch/path"
)

var validate = validator.New()

// Scenario is a parsed scenario file.
type Scenario struct {
	Name          string                    `yaml:"name"`
	Objects       map[string]map[string]any `yaml:"objects" validate:"required,min=1"`
	Root          string                    `yaml:"root" validate:"required"`
	Path          string                    `yaml:"path" validate:"required"`
	SignalInitial bool                      `yaml:"signal_initial"`
	Walker        config.WalkerConfig       `yaml:"walker" validate:"-"`
	Steps         []Step                    `yaml:"steps" validate:"dive"`
}

// Step mutates the object graph. Exactly one of Set or Raise is given.
type Step struct {
	// Set names the property to assign as object.Property.
	Set string `yaml:"set,omitempty" validate:"required_without=Raise,excluded_with=Raise"`
	// Value is assigned by Set. Strings starting with "@" are references.
	Value any `yaml:"value,omitempty"`
	// Ref assigns the named object, taking precedence over Value.
	Ref string `yaml:"ref,omitempty"`

	// Raise names an object to raise a change on without modifying it.
	Raise string `yaml:"raise,omitempty" validate:"required_without=Set"`
	// Property is the raised property; empty raises the wildcard.
	Property string `yaml:"property,omitempty"`
}

// Target splits Set into object and property names.
func (s Step) Target() (object, property string, ok bool) {
	object, property, ok = strings.Cut(s.Set, ".")
	if !ok || object == "" || property == "" || strings.Contains(property, ".") {
		return "", "", false
	}
	return object, property, true
}

func (s Step) String() string {
	if s.Raise != "" {
		if s.Property == "" {
			return fmt.Sprintf("raise %s.*", s.Raise)
		}
		return fmt.Sprintf("raise %s.%s", s.Raise, s.Property)
	}
	if s.Ref != "" {
		return fmt.Sprintf("set %s = @%s", s.Set, s.Ref)
	}
	return fmt.Sprintf("set %s = %v", s.Set, s.Value)
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a scenario file.
func Load(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Validate checks field constraints and that every object reference
// resolves. The path itself is validated when the scenario runs.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}

	if !s.defines(s.Root) {
		return fmt.Errorf("%w: root %q", ErrUnknownObject, s.Root)
	}

	for _, name := range slices.Sorted(maps.Keys(s.Objects)) {
		props := s.Objects[name]
		for _, prop := range slices.Sorted(maps.Keys(props)) {
			if ref, ok := reference(props[prop]); ok && !s.defines(ref) {
				return fmt.Errorf("%w: %s.%s references %q", ErrUnknownObject, name, prop, ref)
			}
		}
	}

	for i, step := range s.Steps {
		if err := s.validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// ParsePath parses the observed path against the object type scenario graphs
// are built from, so every segment resolves as a dynamic property.
func (s *Scenario) ParsePath() (path.Path, error) {
	return path.ParseType(reflect.TypeFor[*notify.Object](), s.Path)
}

func (s *Scenario) validateStep(step Step) error {
	if step.Raise != "" {
		if !s.defines(step.Raise) {
			return fmt.Errorf("%w: %q", ErrUnknownObject, step.Raise)
		}
		return nil
	}

	object, _, ok := step.Target()
	if !ok {
		return fmt.Errorf("%w: set target %q is not object.Property", ErrInvalidStep, step.Set)
	}
	if !s.defines(object) {
		return fmt.Errorf("%w: %q", ErrUnknownObject, object)
	}
	if step.Ref != "" && !s.defines(step.Ref) {
		return fmt.Errorf("%w: ref %q", ErrUnknownObject, step.Ref)
	}
	if ref, ok := reference(step.Value); ok && !s.defines(ref) {
		return fmt.Errorf("%w: value %q", ErrUnknownObject, ref)
	}
	return nil
}

func (s *Scenario) defines(name string) bool {
	_, ok := s.Objects[name]
	return ok
}

// reference reports the object named by an "@name" value.
func reference(v any) (string, bool) {
	str, ok := v.(string)
	if !ok || !strings.HasPrefix(str, "@") || strings.HasPrefix(str, "@@") {
		return "", false
	}
	return str[1:], true
}

// literal unescapes "@@" values.
func literal(v any) any {
	if str, ok := v.(string); ok && strings.HasPrefix(str, "@@") {
		return str[1:]
	}
	return v
}
