package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/pathwatch/chain"
	"github.com/tailored-agentic-units/pathwatch/maybe"
	"github.com/tailored-agentic-units/pathwatch/metrics"
	"github.com/tailored-agentic-units/pathwatch/notify"
	"github.com/tailored-agentic-units/pathwatch/observability"
	"github.com/tailored-agentic-units/pathwatch/observe"
)

// Adapter selects the notification shape a Runner records.
type Adapter string

const (
	AdapterChanges  Adapter = "changes"
	AdapterNames    Adapter = "names"
	AdapterValues   Adapter = "values"
	AdapterCombined Adapter = "combined"
)

// Adapters lists the supported adapters.
func Adapters() []Adapter {
	return []Adapter{AdapterChanges, AdapterNames, AdapterValues, AdapterCombined}
}

// ParseAdapter converts a name to an Adapter.
func ParseAdapter(name string) (Adapter, error) {
	for _, a := range Adapters() {
		if string(a) == strings.ToLower(name) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAdapter, name)
}

// Record is one notification captured during a run. Step is 0 for the
// initial notification and the 1-based index of the causing step otherwise.
type Record struct {
	Step int
	Line string
}

// Result holds the outcome of a Runner.Run invocation.
type Result struct {
	Records []Record
	Final   maybe.Maybe[any] // path value after the last step
	Metrics metrics.Snapshot // captured before the walker is disposed
}

// Lines returns the recorded lines in delivery order.
func (r *Result) Lines() []string {
	lines := make([]string, len(r.Records))
	for i, rec := range r.Records {
		lines[i] = rec.Line
	}
	return lines
}

// Option configures a Runner.
type Option func(*Runner)

// WithAdapter selects the adapter. The default is AdapterCombined.
func WithAdapter(a Adapter) Option {
	return func(r *Runner) { r.adapter = a }
}

// WithObserver overrides the observer named by the scenario's walker config.
func WithObserver(o observability.Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithMetrics records walker activity to m instead of a per-runner instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// Runner executes a scenario against a freshly built graph.
type Runner struct {
	scenario *Scenario
	adapter  Adapter
	observer observability.Observer
	metrics  *metrics.Metrics
}

// NewRunner creates a Runner for s.
func NewRunner(s *Scenario, opts ...Option) *Runner {
	r := &Runner{
		scenario: s,
		adapter:  AdapterCombined,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	return r
}

// Run builds the graph, subscribes with the configured adapter and applies
// every step in order. Path errors are returned before any step runs.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	g, err := Build(r.scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}

	result := &Result{}
	step := 0
	record := func(line string) {
		result.Records = append(result.Records, Record{Step: step, Line: line})
	}

	w, err := r.subscribe(g.Object(r.scenario.Root), record)
	if err != nil {
		return nil, err
	}
	defer w.Dispose()

	for i, st := range r.scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step = i + 1
		if err := g.Apply(st); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", step, st, err)
		}
	}

	result.Final = w.Value()
	result.Metrics = r.metrics.Snapshot()
	return result, nil
}

func (r *Runner) options() []chain.Option {
	cfg := r.scenario.Walker
	if cfg.Name == "" {
		cfg.Name = r.scenario.Name
	}

	opts := []chain.Option{chain.WithConfig(cfg), chain.WithMetrics(r.metrics)}
	if r.observer != nil {
		opts = append(opts, chain.WithObserver(r.observer))
	}
	return opts
}

func (r *Runner) subscribe(root *notify.Object, record func(string)) (*chain.Walker, error) {
	p, err := r.scenario.ParsePath()
	if err != nil {
		return nil, err
	}
	signal := r.scenario.SignalInitial
	opts := r.options()

	switch r.adapter {
	case AdapterChanges:
		stream, err := observe.ChangesAlong(root, p, signal, opts...)
		if err != nil {
			return nil, err
		}
		stream.Subscribe(func(e notify.PropertyChangedEvent) {
			record(fmt.Sprintf("change sender=%v property=%s", e.Sender, displayName(e.PropertyName)))
		})
		return stream.Walker(), nil

	case AdapterNames:
		stream, err := observe.NamesAlong(root, p, signal, opts...)
		if err != nil {
			return nil, err
		}
		stream.Subscribe(func(name string) {
			record("name " + displayName(name))
		})
		return stream.Walker(), nil

	case AdapterValues:
		stream, err := observe.ValuesAlong[any](root, p, signal, opts...)
		if err != nil {
			return nil, err
		}
		stream.Subscribe(func(v maybe.Maybe[any]) {
			record("value " + v.String())
		})
		return stream.Walker(), nil

	case AdapterCombined:
		stream, err := observe.ChangesWithValueAlong[any](root, p, signal, opts...)
		if err != nil {
			return nil, err
		}
		stream.Subscribe(func(c observe.Change[any]) {
			record(fmt.Sprintf("change sender=%v property=%s value=%s",
				c.Sender, displayName(c.PropertyName), c.Value))
		})
		return stream.Walker(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, r.adapter)
	}
}

func displayName(name string) string {
	if name == notify.AllProperties {
		return "*"
	}
	return name
}
