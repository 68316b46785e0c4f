package chain

import "github.com/tailored-agentic-units/pathwatch/observability"

const (
	// Walker lifecycle
	EventWalkerCreate  observability.EventType = "walker.create"
	EventWalkerDispose observability.EventType = "walker.dispose"
	EventNotify        observability.EventType = "walker.notify"
	EventOverflow      observability.EventType = "walker.overflow"

	// Level nodes
	EventNodeAttach       observability.EventType = "node.attach"
	EventNodeDetach       observability.EventType = "node.detach"
	EventNodeUnobservable observability.EventType = "node.unobservable"

	// Subscriptions
	EventSubscriptionAdd    observability.EventType = "subscription.add"
	EventSubscriptionRemove observability.EventType = "subscription.remove"
)
