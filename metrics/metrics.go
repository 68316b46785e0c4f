// Package metrics tracks path walker activity with lock-free counters and
// exposes them to Prometheus.
package metrics

import "sync/atomic"

// Default is shared by walkers created without an explicit Metrics.
var Default = New()

type Snapshot struct {
	ActiveWalkers       int64
	ActiveSubscriptions int64
	Notifications       int64
	Rebuilds            int64
	DroppedChanges      int64
}

type Metrics struct {
	activeWalkers       atomic.Int64
	activeSubscriptions atomic.Int64
	notifications       atomic.Int64
	rebuilds            atomic.Int64
	droppedChanges      atomic.Int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordWalker(delta int) {
	m.activeWalkers.Add(int64(delta))
}

func (m *Metrics) RecordSubscription(delta int) {
	m.activeSubscriptions.Add(int64(delta))
}

func (m *Metrics) RecordNotification(delta int) {
	m.notifications.Add(int64(delta))
}

func (m *Metrics) RecordRebuild(delta int) {
	m.rebuilds.Add(int64(delta))
}

func (m *Metrics) RecordDropped(delta int) {
	m.droppedChanges.Add(int64(delta))
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ActiveWalkers:       m.activeWalkers.Load(),
		ActiveSubscriptions: m.activeSubscriptions.Load(),
		Notifications:       m.notifications.Load(),
		Rebuilds:            m.rebuilds.Load(),
		DroppedChanges:      m.droppedChanges.Load(),
	}
}
