package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors exposes a Metrics as Prometheus collectors. Values are read from
// the atomic counters at scrape time.
type Collectors struct {
	ActiveWalkers       prometheus.GaugeFunc
	ActiveSubscriptions prometheus.GaugeFunc
	Notifications       prometheus.CounterFunc
	Rebuilds            prometheus.CounterFunc
	DroppedChanges      prometheus.CounterFunc
}

// NewCollectors builds collectors for m under the given namespace.
func NewCollectors(namespace string, m *Metrics) *Collectors {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace: namespace,
			Subsystem: "walker",
			Name:      name,
			Help:      help,
		}
	}

	return &Collectors{
		ActiveWalkers: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts(opts("active", "Path walkers that have not been disposed.")),
			func() float64 { return float64(m.activeWalkers.Load()) },
		),
		ActiveSubscriptions: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts(opts("subscriptions_active", "Subscriptions that have not been disposed.")),
			func() float64 { return float64(m.activeSubscriptions.Load()) },
		),
		Notifications: prometheus.NewCounterFunc(
			prometheus.CounterOpts(opts("notifications_total", "Notifications delivered to subscribers.")),
			func() float64 { return float64(m.notifications.Load()) },
		),
		Rebuilds: prometheus.NewCounterFunc(
			prometheus.CounterOpts(opts("rebuilds_total", "Chain subtrees torn down and rebuilt after an identity change.")),
			func() float64 { return float64(m.rebuilds.Load()) },
		),
		DroppedChanges: prometheus.NewCounterFunc(
			prometheus.CounterOpts(opts("dropped_changes_total", "Changes dropped because the pending queue was full.")),
			func() float64 { return float64(m.droppedChanges.Load()) },
		),
	}
}

// Register registers every collector with reg.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{
		c.ActiveWalkers,
		c.ActiveSubscriptions,
		c.Notifications,
		c.Rebuilds,
		c.DroppedChanges,
	} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}
