package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tailored-agentic-units/pathwatch"

// OTelObserver counts events with an OpenTelemetry Int64Counter named
// "pathwatch.events", attributed by event type, source and severity.
type OTelObserver struct {
	events metric.Int64Counter
}

// NewOTelObserver creates an observer recording to mp. A nil mp uses the
// global MeterProvider.
func NewOTelObserver(mp metric.MeterProvider) (*OTelObserver, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(instrumentationName)
	events, err := meter.Int64Counter(
		"pathwatch.events",
		metric.WithDescription("Path walker events by type"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event counter: %w", err)
	}

	return &OTelObserver{events: events}, nil
}

func (o *OTelObserver) OnEvent(ctx context.Context, event Event) {
	o.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", string(event.Type)),
		attribute.String("event.source", event.Source),
		attribute.String("event.severity", event.Level.String()),
	))
}
