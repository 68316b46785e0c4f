// Package observability reports what path walkers do: chain construction,
// node attach and detach, rebuild cascades, delivered notifications and
// dropped changes. Walkers emit Events to an Observer; observers forward them
// to slog, OpenTelemetry metrics or an in-memory Recorder.
//
// Level values align with OpenTelemetry SeverityNumbers so events can be
// forwarded to OTel collectors without translation.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps this level to the corresponding slog.Level.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event, e.g. "walker.create" or
// "node.attach". Emitting packages define their own constants.
type EventType string

// Data keys every walker event carries.
const (
	KeyWalker   = "walker"
	KeyWalkerID = "walker_id"
	KeyPath     = "path"
)

// Event is emitted by walkers. Source names the emitting component and Data
// carries event attributes: the walker keys above plus per-type ones such as
// depth and property.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// WalkerID returns the identifier of the walker that emitted e, or "" for
// events that carry none.
func (e Event) WalkerID() string {
	id, _ := e.Data[KeyWalkerID].(string)
	return id
}

// Path returns the text of the observed path, or "".
func (e Event) Path() string {
	p, _ := e.Data[KeyPath].(string)
	return p
}

// Observer receives events. OnEvent runs synchronously on the goroutine
// that applies the change and must not call back into the emitting walker.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) OnEvent(ctx context.Context, event Event) {
	f(ctx, event)
}

// NoOpObserver discards all events.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
