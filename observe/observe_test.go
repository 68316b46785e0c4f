package observe_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/pathwatch/chain"
	"github.com/tailored-agentic-units/pathwatch/maybe"
	"github.com/tailored-agentic-units/pathwatch/metrics"
	"github.com/tailored-agentic-units/pathwatch/notify"
	"github.com/tailored-agentic-units/pathwatch/observability"
	"github.com/tailored-agentic-units/pathwatch/observe"
	"github.com/tailored-agentic-units/pathwatch/path"
)

type address struct {
	notify.Source
	City string
}

func (a *address) SetCity(v string) { notify.Set(&a.Source, a, &a.City, v, "City") }

type customer struct {
	notify.Source
	Address *address
}

func (c *customer) SetAddress(v *address) { notify.Set(&c.Source, c, &c.Address, v, "Address") }

type billing struct {
	Zip string
}

type order struct {
	notify.Source
	Customer *customer
	Billing  billing
	Total    int
}

func (o *order) SetCustomer(v *customer) { notify.Set(&o.Source, o, &o.Customer, v, "Customer") }
func (o *order) SetTotal(v int)          { notify.Set(&o.Source, o, &o.Total, v, "Total") }

func newOrder(city string) *order {
	return &order{Customer: &customer{Address: &address{City: city}}}
}

func quiet() []chain.Option {
	return []chain.Option{
		chain.WithObserver(observability.NoOpObserver{}),
		chain.WithMetrics(metrics.New()),
	}
}

func TestChanges(t *testing.T) {
	o := newOrder("Paris")
	s, err := observe.Changes(o, "Customer.Address.City", false, quiet()...)
	require.NoError(t, err)
	defer s.Dispose()

	var got []notify.PropertyChangedEvent
	s.Subscribe(func(e notify.PropertyChangedEvent) { got = append(got, e) })

	o.SetCustomer(&customer{Address: &address{City: "Lyon"}})
	o.Customer.Address.SetCity("Nice")

	require.Len(t, got, 2)
	assert.Same(t, o, got[0].Sender)
	assert.Equal(t, "Customer", got[0].PropertyName)
	assert.Same(t, o.Customer.Address, got[1].Sender)
	assert.Equal(t, "City", got[1].PropertyName)
}

func TestNames_SignalInitial(t *testing.T) {
	o := newOrder("Paris")
	s, err := observe.Names(o, "Customer.Address.City", true, quiet()...)
	require.NoError(t, err)
	defer s.Dispose()

	var got []string
	s.Subscribe(func(name string) { got = append(got, name) })
	o.Customer.SetAddress(&address{City: "Lyon"})

	assert.Equal(t, []string{notify.AllProperties, "Address"}, got)
}

func TestValues(t *testing.T) {
	o := newOrder("Paris")
	s, err := observe.Values[string](o, "Customer.Address.City", true, quiet()...)
	require.NoError(t, err)
	defer s.Dispose()

	var got []maybe.Maybe[string]
	s.Subscribe(func(v maybe.Maybe[string]) { got = append(got, v) })

	o.Customer.Address.SetCity("Lyon")
	o.SetCustomer(nil)

	assert.Equal(t, []maybe.Maybe[string]{
		maybe.Some("Paris"),
		maybe.Some("Lyon"),
		maybe.None[string](),
	}, got)
}

func TestValues_NilTerminalIsSome(t *testing.T) {
	o := &order{Customer: &customer{}}
	s, err := observe.Values[*address](o, "Customer.Address", true, quiet()...)
	require.NoError(t, err)
	defer s.Dispose()

	var got []maybe.Maybe[*address]
	s.Subscribe(func(v maybe.Maybe[*address]) { got = append(got, v) })
	o.SetCustomer(nil)

	require.Len(t, got, 2)
	assert.Equal(t, maybe.Some[*address](nil), got[0])
	assert.Equal(t, maybe.None[*address](), got[1])
}

func TestValues_TypeMismatch(t *testing.T) {
	o := newOrder("Paris")

	_, err := observe.Values[int](o, "Customer.Address.City", false, quiet()...)
	require.ErrorIs(t, err, path.ErrTypeMismatch)
	assert.Contains(t, err.Error(), `"City" has type string`)
	assert.Contains(t, err.Error(), "The path is: Customer.Address.City")

	_, err = observe.ChangesWithValue[int](o, "Customer.Address.City", false, quiet()...)
	assert.ErrorIs(t, err, path.ErrTypeMismatch)

	s, err := observe.Values[any](o, "Customer.Address.City", false, quiet()...)
	require.NoError(t, err)
	s.Dispose()
}

func TestValues_DynamicMismatch(t *testing.T) {
	root := notify.NewObject("root")
	a := notify.NewObject("a")
	root.Set("A", a)
	a.Set("C", 1)

	rec := observability.NewRecorder()
	s, err := observe.Values[int](root, "A.C", true,
		chain.WithObserver(rec), chain.WithMetrics(metrics.New()))
	require.NoError(t, err)
	defer s.Dispose()

	var got []maybe.Maybe[int]
	s.Subscribe(func(v maybe.Maybe[int]) { got = append(got, v) })
	a.Set("C", "text")

	assert.Equal(t, []maybe.Maybe[int]{maybe.Some(1), maybe.None[int]()}, got)

	mismatches := rec.OfType(observe.EventValueMismatch)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "string", mismatches[0].Data["got"])
	assert.Equal(t, "int", mismatches[0].Data["want"])
}

func TestValues_DynamicNilForValueType(t *testing.T) {
	root := notify.NewObject("root")
	a := notify.NewObject("a")
	root.Set("A", a)
	a.Set("C", 1)

	rec := observability.NewRecorder()
	s, err := observe.Values[int](root, "A.C", true,
		chain.WithObserver(rec), chain.WithMetrics(metrics.New()))
	require.NoError(t, err)
	defer s.Dispose()

	var got []maybe.Maybe[int]
	s.Subscribe(func(v maybe.Maybe[int]) { got = append(got, v) })
	a.Set("C", nil)

	assert.Equal(t, []maybe.Maybe[int]{maybe.Some(1), maybe.None[int]()}, got)

	mismatches := rec.OfType(observe.EventValueMismatch)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "<nil>", mismatches[0].Data["got"])
}

func TestValues_DynamicNamesShadowObjectMembers(t *testing.T) {
	root := notify.NewObject("root")
	keys := notify.NewObject("keys")
	named := notify.NewObject("named")
	root.Set("Keys", keys)
	root.Set("Name", named)
	keys.Set("X", 3)
	named.Set("String", "s")

	s, err := observe.Values[any](root, "Keys.X", true, quiet()...)
	require.NoError(t, err)
	defer s.Dispose()

	var got []maybe.Maybe[any]
	s.Subscribe(func(v maybe.Maybe[any]) { got = append(got, v) })
	keys.Set("X", 4)

	assert.Equal(t, []maybe.Maybe[any]{maybe.Some[any](3), maybe.Some[any](4)}, got)

	names, err := observe.Values[string](root, "Name.String", true, quiet()...)
	require.NoError(t, err)
	defer names.Dispose()

	var last maybe.Maybe[string]
	names.Subscribe(func(v maybe.Maybe[string]) { last = v })
	assert.Equal(t, maybe.Some("s"), last)
}

func TestChangesWithValue(t *testing.T) {
	o := newOrder("Paris")
	s, err := observe.ChangesWithValue[string](o, "Customer.Address.City", false, quiet()...)
	require.NoError(t, err)
	defer s.Dispose()

	var got []observe.Change[string]
	s.Subscribe(func(c observe.Change[string]) { got = append(got, c) })

	replacement := &address{City: "Lyon"}
	o.Customer.SetAddress(replacement)

	require.Len(t, got, 1)
	assert.Same(t, o.Customer, got[0].Sender)
	assert.Equal(t, "Address", got[0].PropertyName)
	assert.Equal(t, maybe.Some("Lyon"), got[0].Value)
}

func TestPropertyChanges(t *testing.T) {
	o := newOrder("Paris")
	s, err := observe.PropertyChanges(o, "Total", false, quiet()...)
	require.NoError(t, err)
	defer s.Dispose()

	var got []string
	s.Subscribe(func(e notify.PropertyChangedEvent) { got = append(got, e.PropertyName) })

	o.SetTotal(10)
	o.SetCustomer(nil)
	o.RaisePropertyChanged(o, notify.AllProperties)

	assert.Equal(t, []string{"Total", ""}, got)

	_, err = observe.PropertyChanges(o, "Customer.Address", false, quiet()...)
	assert.ErrorIs(t, err, path.ErrTooLong)
}

func TestConstructionErrors(t *testing.T) {
	o := newOrder("Paris")

	tests := []struct {
		name string
		expr string
		want error
	}{
		{"empty", "", path.ErrEmpty},
		{"single segment", "Total", path.ErrTooShort},
		{"method call", "Customer.Address.City()", path.ErrNotProperty},
		{"indexer", "Customer[0].Address", path.ErrNotProperty},
		{"empty hop", "Customer..City", path.ErrNotProperty},
		{"unknown", "Customer.Phone", path.ErrUnknownProperty},
		{"value-typed intermediate", "Billing.Zip", path.ErrValueType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := observe.Changes(o, tt.expr, false, quiet()...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := observe.Names(&struct{ notify.Source }{}, "X.Y", false, quiet()...)
	assert.ErrorIs(t, err, path.ErrUnknownProperty)
}

func TestValuesAlong_CustomSegments(t *testing.T) {
	customerSeg := path.NewSegment("Customer", reflect.TypeFor[*order](), reflect.TypeFor[*customer](),
		func(source any) (any, bool) { return source.(*order).Customer, true })
	addressSeg := path.NewSegment("Address", reflect.TypeFor[*customer](), reflect.TypeFor[*address](),
		func(source any) (any, bool) { return source.(*customer).Address, true })

	p := path.New("", customerSeg, addressSeg)
	assert.Equal(t, "Customer.Address", p.Text)

	o := newOrder("Paris")
	s, err := observe.ValuesAlong[*address](o, p, false, quiet()...)
	require.NoError(t, err)
	defer s.Dispose()

	var got []maybe.Maybe[*address]
	s.Subscribe(func(v maybe.Maybe[*address]) { got = append(got, v) })

	replacement := &address{City: "Lyon"}
	o.Customer.SetAddress(replacement)

	require.Len(t, got, 1)
	assert.Same(t, replacement, got[0].Value())
}

func TestDispose_ReleasesGraph(t *testing.T) {
	o := newOrder("Paris")
	s, err := observe.Names(o, "Customer.Address.City", false, quiet()...)
	require.NoError(t, err)

	var got []string
	sub := s.Subscribe(func(name string) { got = append(got, name) })

	assert.Equal(t, 1, o.HandlerCount())
	assert.Equal(t, 1, o.Customer.HandlerCount())
	assert.Equal(t, 1, o.Customer.Address.HandlerCount())

	s.Dispose()
	s.Dispose()

	assert.False(t, sub.Active())
	assert.True(t, s.Walker().Disposed())
	assert.Equal(t, 0, o.HandlerCount())
	assert.Equal(t, 0, o.Customer.HandlerCount())
	assert.Equal(t, 0, o.Customer.Address.HandlerCount())

	o.Customer.Address.SetCity("Lyon")
	assert.Empty(t, got)
}
