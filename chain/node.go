package chain

import (
	"github.com/tailored-agentic-units/pathwatch/notify"
	"github.com/tailored-agentic-units/pathwatch/path"
)

type nodeState int

const (
	stateEmpty nodeState = iota
	stateAttached
	stateDisposed
)

func (s nodeState) String() string {
	switch s {
	case stateEmpty:
		return "empty"
	case stateAttached:
		return "attached"
	default:
		return "disposed"
	}
}

// node tracks the object currently occupying one depth of the path. Node i
// holds the value of segment i-1 (the root for i == 0) and reads segment i
// from it. A non-terminal attached node owns the node for depth i+1.
//
// All methods run with the walker's mutex held.
type node struct {
	walker  *Walker
	depth   int
	segment path.Segment

	state       nodeState
	source      any
	observed    bool
	unsubscribe func()
	child       *node
}

func newNode(w *Walker, depth int) *node {
	return &node{
		walker:  w,
		depth:   depth,
		segment: w.path.Segment(depth),
	}
}

func (n *node) terminal() bool {
	return n.segment.Terminal
}

// set moves the node to source. Setting the instance already attached is a
// no-op; anything else tears down the current subtree deepest-first before
// subscribing to source and rebuilding below it. It reports whether the node
// changed.
func (n *node) set(source any) bool {
	if n.state == stateDisposed {
		return false
	}
	if n.state == stateAttached && notify.Same(n.source, source) {
		return false
	}

	wasEmpty := n.state == stateEmpty
	n.detach()
	if notify.IsNil(source) {
		return !wasEmpty
	}

	n.source = source
	n.state = stateAttached
	if notifier, ok := source.(notify.Notifier); ok {
		n.unsubscribe = notifier.OnPropertyChanged(n.handler(source))
		n.observed = true
	} else {
		n.walker.emitUnobservable(n)
	}
	n.walker.emitNode(EventNodeAttach, n)

	if !n.terminal() {
		n.child = newNode(n.walker, n.depth+1)
		next, _ := n.segment.Get(source)
		n.child.set(next)
	}
	return true
}

// detach disposes the subtree, then drops this node's own subscription and
// source, leaving it empty.
func (n *node) detach() {
	if n.child != nil {
		n.child.dispose()
		n.child = nil
	}
	if n.unsubscribe != nil {
		n.unsubscribe()
		n.unsubscribe = nil
	}
	if n.state == stateAttached {
		n.walker.emitNode(EventNodeDetach, n)
	}
	n.source = nil
	n.observed = false
	if n.state != stateDisposed {
		n.state = stateEmpty
	}
}

func (n *node) dispose() {
	if n.state == stateDisposed {
		return
	}
	n.detach()
	n.state = stateDisposed
}

// handler forwards changes raised by source to the walker. The captured
// source lets the walker discard events from a source this node has since
// left.
func (n *node) handler(source any) notify.Handler {
	return func(event notify.PropertyChangedEvent) {
		n.walker.enqueue(change{node: n, source: source, event: event})
	}
}

// current reports whether source is still the attached source of n.
func (n *node) current(source any) bool {
	return n.state == stateAttached && notify.Same(n.source, source)
}
