// Package chain observes a validated property path on a root object.
//
// A Walker keeps one level node per depth of the path. Each attached node is
// subscribed to the object currently at its depth; when that object raises a
// change for the node's outgoing property (or the wildcard), the walker tears
// down every node below it, deepest first, and rebuilds them from the new
// value. Every matching change produces exactly one Notification for each
// subscriber.
//
//	p, _ := path.Parse(order, "Customer.Address.City")
//	validated, _ := path.Validate(p, path.FullPath)
//	w, err := chain.New(order, validated)
//	sub := w.Subscribe(func(n chain.Notification) {
//	    fmt.Println(n.PropertyName, n.Value)
//	}, true)
//	defer w.Dispose()
//
// # Concurrency
//
// A walker never starts goroutines. Changes are applied on the goroutine that
// raises them. The chain is guarded by one mutex per walker and the pending
// queue by a second one that is never held while user code runs. A change
// raised while another is being applied (by a subscriber, by a getter during
// a rebuild, or by another goroutine) is queued and applied after it, so
// subscribers never see a half-rebuilt chain. Subscribers run outside both
// mutexes and may mutate the observed objects, subscribe or dispose.
//
// Dispose called from a subscriber, or from the goroutine that raised the
// change, stops delivery before it returns. A notification already being
// delivered on another goroutine may still complete; Close waits for it.
package chain

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/pathwatch/config"
	"github.com/tailored-agentic-units/pathwatch/maybe"
	"github.com/tailored-agentic-units/pathwatch/metrics"
	"github.com/tailored-agentic-units/pathwatch/notify"
	"github.com/tailored-agentic-units/pathwatch/observability"
	"github.com/tailored-agentic-units/pathwatch/path"
)

// Notification is delivered to subscribers once per matching change.
type Notification struct {
	// Sender is the object that raised the change. For initial
	// notifications it is the deepest attached object.
	Sender any
	// PropertyName is the changed property, or notify.AllProperties for
	// wildcard changes and initial notifications.
	PropertyName string
	// Value is the path's resolution captured right after the change was
	// applied.
	Value maybe.Maybe[any]
	// Initial marks the synthetic notification delivered by Subscribe.
	Initial bool
}

type change struct {
	node   *node
	source any
	event  notify.PropertyChangedEvent
}

// Option configures a Walker before its chain is built.
type Option func(*Walker)

// WithConfig merges cfg over the walker's default configuration.
func WithConfig(cfg config.WalkerConfig) Option {
	return func(w *Walker) { w.cfg.Merge(&cfg) }
}

// WithName sets the name reported in observability events.
func WithName(name string) Option {
	return func(w *Walker) { w.cfg.Name = name }
}

// WithObserver overrides the observer named by the configuration.
func WithObserver(o observability.Observer) Option {
	return func(w *Walker) { w.observer = o }
}

// WithMetrics records activity to m instead of metrics.Default.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Walker) { w.metrics = m }
}

// Walker owns the level node chain for one root and one path.
type Walker struct {
	id   string
	path *path.Validated
	cfg  config.WalkerConfig

	observer observability.Observer
	metrics  *metrics.Metrics

	mu       sync.Mutex
	root     *node
	subs     []*Subscription
	nextSub  uint64
	disposed bool

	qmu      sync.Mutex
	queue    []change
	draining bool
	idle     chan struct{}
	closed   bool
}

// New builds the chain for p on root. Construction does not notify. The root
// must be notify-capable, and p must not exceed the configured maximum length.
func New(root any, p *path.Validated, opts ...Option) (*Walker, error) {
	if p == nil {
		return nil, &path.Error{Kind: path.ErrEmpty}
	}

	w := &Walker{
		id:   uuid.Must(uuid.NewV7()).String(),
		path: p,
		cfg:  config.DefaultWalkerConfig(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.cfg.Validate(); err != nil {
		return nil, err
	}
	if p.Len() > w.cfg.MaxPathLength {
		return nil, &path.Error{
			Kind:   path.ErrTooLong,
			Path:   p.Text(),
			Detail: fmt.Sprintf("%d segments exceeds the limit of %d", p.Len(), w.cfg.MaxPathLength),
		}
	}
	if _, ok := root.(notify.Notifier); !ok || notify.IsNil(root) {
		return nil, &path.Error{
			Kind:     path.ErrRootNotNotifier,
			TypeName: fmt.Sprintf("%T", root),
			Path:     p.Text(),
		}
	}

	if w.observer == nil {
		obs, err := observability.GetObserver(w.cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		w.observer = obs
	}
	if w.metrics == nil {
		w.metrics = metrics.Default
	}

	// getters may raise while the chain is built; those changes wait in the
	// queue until it is complete
	if w.claim() {
		defer w.settle()
	}
	w.mu.Lock()
	w.root = newNode(w, 0)
	w.root.set(root)
	depth := w.depthLocked()
	w.mu.Unlock()

	w.metrics.RecordWalker(1)
	w.emit(EventWalkerCreate, observability.LevelVerbose, map[string]any{
		"depth": depth,
	})
	return w, nil
}

// ID returns the walker's unique UUIDv7 identifier.
func (w *Walker) ID() string {
	return w.id
}

// Name returns the configured walker name.
func (w *Walker) Name() string {
	return w.cfg.Name
}

// Observer returns the observer the walker emits events to.
func (w *Walker) Observer() observability.Observer {
	return w.observer
}

// Path returns the observed path.
func (w *Walker) Path() *path.Validated {
	return w.path
}

// Depth returns the number of attached level nodes.
func (w *Walker) Depth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.depthLocked()
}

// Disposed reports whether Dispose has been called.
func (w *Walker) Disposed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disposed
}

// Subscribers returns the number of live subscriptions.
func (w *Walker) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

// Value resolves the path against the current chain. It returns None when
// an intermediate link is nil or the walker is disposed.
func (w *Walker) Value() maybe.Maybe[any] {
	if w.claim() {
		defer w.settle()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resolveLocked()
}

// Subscribe registers fn for every future notification. When signalInitial
// is true, fn first receives one Initial notification describing the current
// state, before Subscribe returns. Subscribing to a disposed walker returns
// an inert subscription.
func (w *Walker) Subscribe(fn func(Notification), signalInitial bool) *Subscription {
	if fn == nil {
		fn = func(Notification) {}
	}

	if w.claim() {
		defer w.settle()
	}
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return &Subscription{walker: w, fn: fn}
	}

	w.nextSub++
	sub := &Subscription{id: w.nextSub, walker: w, fn: fn}
	sub.active.Store(true)
	w.subs = append(w.subs, sub)

	var initial Notification
	if signalInitial {
		initial = Notification{
			Sender:       w.deepestSourceLocked(),
			PropertyName: notify.AllProperties,
			Value:        w.resolveLocked(),
			Initial:      true,
		}
	}
	count := len(w.subs)
	w.mu.Unlock()

	w.metrics.RecordSubscription(1)
	w.emit(EventSubscriptionAdd, observability.LevelVerbose, map[string]any{
		"subscription": sub.id,
		"initial":      signalInitial,
		"subscribers":  count,
	})

	if signalInitial && sub.deliver(initial) {
		w.metrics.RecordNotification(1)
	}
	return sub
}

// Dispose tears down the whole chain, deepest node first, and detaches all
// subscriptions. Pending changes are dropped and no notification starts after
// Dispose returns. It is safe to call more than once, including from inside a
// subscriber.
func (w *Walker) Dispose() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	w.qmu.Lock()
	w.closed = true
	w.queue = nil
	w.qmu.Unlock()
	w.root.dispose()
	w.root = nil
	subs := w.subs
	w.subs = nil
	w.mu.Unlock()

	removed := 0
	for _, sub := range subs {
		if sub.active.CompareAndSwap(true, false) {
			removed++
		}
	}

	w.metrics.RecordSubscription(-removed)
	w.metrics.RecordWalker(-1)
	w.emit(EventWalkerDispose, observability.LevelVerbose, map[string]any{
		"subscriptions": removed,
	})
}

// Close disposes the walker and then waits until any notification being
// delivered on another goroutine has returned, or ctx is done. It must not be
// called from a subscriber of w; use Dispose there.
func (w *Walker) Close(ctx context.Context) error {
	w.Dispose()

	w.qmu.Lock()
	if !w.draining {
		w.qmu.Unlock()
		return nil
	}
	idle := w.idle
	w.qmu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("walker %s still delivering: %w", w.id, ctx.Err())
	}
}

func (w *Walker) removeSubscription(sub *Subscription) {
	w.mu.Lock()
	w.subs = slices.DeleteFunc(w.subs, func(s *Subscription) bool { return s == sub })
	count := len(w.subs)
	w.mu.Unlock()

	w.metrics.RecordSubscription(-1)
	w.emit(EventSubscriptionRemove, observability.LevelVerbose, map[string]any{
		"subscription": sub.id,
		"subscribers":  count,
	})
}

// enqueue appends c to the pending queue and, unless a drain is already in
// progress, drains it on the calling goroutine. It takes only the queue
// mutex, so getters and notifiers may raise while the chain mutex is held.
func (w *Walker) enqueue(c change) {
	w.qmu.Lock()
	if w.closed {
		w.qmu.Unlock()
		return
	}
	if len(w.queue) >= w.cfg.MaxPendingChanges {
		pending := len(w.queue)
		w.qmu.Unlock()

		w.metrics.RecordDropped(1)
		w.emit(EventOverflow, observability.LevelWarning, map[string]any{
			"property": c.event.PropertyName,
			"depth":    c.node.depth,
			"pending":  pending,
		})
		return
	}

	w.queue = append(w.queue, c)
	if w.draining {
		w.qmu.Unlock()
		return
	}
	w.startLocked()
	w.qmu.Unlock()

	w.drain()
}

// claim marks the queue as draining before work that runs getters under the
// chain mutex. When it reports true the caller defers settle; otherwise the
// goroutine already draining picks up the changes.
func (w *Walker) claim() bool {
	w.qmu.Lock()
	defer w.qmu.Unlock()
	if w.draining {
		return false
	}
	w.startLocked()
	return true
}

// settle ends a claim once the chain mutex is released. If the claiming call
// is panicking the queue is cleared instead of drained.
func (w *Walker) settle() {
	if r := recover(); r != nil {
		w.qmu.Lock()
		w.stopLocked()
		w.qmu.Unlock()
		panic(r)
	}
	w.drain()
}

func (w *Walker) startLocked() {
	w.draining = true
	w.idle = make(chan struct{})
}

func (w *Walker) stopLocked() {
	w.draining = false
	w.queue = nil
	close(w.idle)
}

func (w *Walker) drain() {
	finished := false
	defer func() {
		if finished {
			return
		}
		// a subscriber panicked; reset so later changes are still applied
		w.qmu.Lock()
		w.stopLocked()
		w.qmu.Unlock()
	}()

	for {
		c, ok := w.next()
		if !ok {
			finished = true
			return
		}
		if n, subs, ok := w.apply(c); ok {
			w.deliver(subs, n)
		}
	}
}

// next pops the oldest pending change. An empty or closed queue ends the
// drain in the same critical section, so a concurrent enqueue either lands
// before it or starts a new drain.
func (w *Walker) next() (change, bool) {
	w.qmu.Lock()
	defer w.qmu.Unlock()
	if w.closed || len(w.queue) == 0 {
		w.stopLocked()
		return change{}, false
	}

	c := w.queue[0]
	w.queue[0] = change{}
	w.queue = w.queue[1:]
	return c, true
}

func (w *Walker) apply(c change) (Notification, []*Subscription, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return Notification{}, nil, false
	}

	n, ok := w.applyLocked(c)
	if !ok {
		return Notification{}, nil, false
	}
	return n, slices.Clone(w.subs), true
}

// applyLocked applies one change to the chain and builds its notification.
// Changes from a source the node no longer holds, and changes to properties
// other than the node's outgoing segment, produce nothing.
func (w *Walker) applyLocked(c change) (Notification, bool) {
	n := c.node
	if !n.current(c.source) {
		return Notification{}, false
	}
	if !notify.Matches(c.event.PropertyName, n.segment.Name) {
		return Notification{}, false
	}

	if !n.terminal() {
		next, _ := n.segment.Get(n.source)
		if n.child.set(next) {
			w.metrics.RecordRebuild(1)
		}
	}

	sender := c.event.Sender
	if sender == nil {
		sender = c.source
	}
	return Notification{
		Sender:       sender,
		PropertyName: c.event.PropertyName,
		Value:        w.resolveLocked(),
	}, true
}

func (w *Walker) deliver(subs []*Subscription, n Notification) {
	delivered := 0
	for _, sub := range subs {
		if sub.deliver(n) {
			delivered++
		}
	}

	w.metrics.RecordNotification(delivered)
	w.emit(EventNotify, observability.LevelVerbose, map[string]any{
		"property":    n.PropertyName,
		"resolved":    n.Value.HasValue(),
		"subscribers": delivered,
	})
}

// resolveLocked walks the chain from the root. Attached nodes that are
// observed supply their cached source; below an unobserved node the
// remaining segments are read directly.
func (w *Walker) resolveLocked() maybe.Maybe[any] {
	for n := w.root; n != nil; n = n.child {
		if n.state != stateAttached {
			return maybe.None[any]()
		}
		if !n.observed {
			return w.readFrom(n.source, n.depth)
		}
		if n.terminal() {
			v, ok := n.segment.Get(n.source)
			if !ok {
				return maybe.None[any]()
			}
			return maybe.Some(v)
		}
	}
	return maybe.None[any]()
}

func (w *Walker) readFrom(source any, depth int) maybe.Maybe[any] {
	current := source
	for i := depth; i < w.path.Len(); i++ {
		if notify.IsNil(current) {
			return maybe.None[any]()
		}
		v, ok := w.path.Segment(i).Get(current)
		if !ok {
			return maybe.None[any]()
		}
		current = v
	}
	return maybe.Some(current)
}

func (w *Walker) deepestSourceLocked() any {
	var deepest any
	for n := w.root; n != nil && n.state == stateAttached; n = n.child {
		deepest = n.source
	}
	return deepest
}

func (w *Walker) depthLocked() int {
	depth := 0
	for n := w.root; n != nil && n.state == stateAttached; n = n.child {
		depth++
	}
	return depth
}

func (w *Walker) emitNode(t observability.EventType, n *node) {
	w.emit(t, observability.LevelVerbose, map[string]any{
		"depth":    n.depth,
		"property": n.segment.Name,
		"source":   fmt.Sprintf("%T", n.source),
	})
}

func (w *Walker) emitUnobservable(n *node) {
	w.emit(EventNodeUnobservable, observability.LevelWarning, map[string]any{
		"depth":    n.depth,
		"property": n.segment.Name,
		"source":   fmt.Sprintf("%T", n.source),
	})
}

func (w *Walker) emit(t observability.EventType, level observability.Level, data map[string]any) {
	data[observability.KeyWalker] = w.cfg.Name
	data[observability.KeyWalkerID] = w.id
	data[observability.KeyPath] = w.path.Text()

	w.observer.OnEvent(context.Background(), observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "chain.Walker",
		Data:      data,
	})
}
