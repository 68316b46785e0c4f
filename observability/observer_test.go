package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/pathwatch/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 1, want: "TRACE"},
		{name: "verbose maps to DEBUG", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info maps to INFO", level: observability.LevelInfo, want: "INFO"},
		{name: "warning maps to WARN", level: observability.LevelWarning, want: "WARN"},
		{name: "error maps to ERROR", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 21, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  slog.Level
	}{
		{name: "verbose maps to Debug", level: observability.LevelVerbose, want: slog.LevelDebug},
		{name: "info maps to Info", level: observability.LevelInfo, want: slog.LevelInfo},
		{name: "warning maps to Warn", level: observability.LevelWarning, want: slog.LevelWarn},
		{name: "error maps to Error", level: observability.LevelError, want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.SlogLevel(); got != tt.want {
				t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_OTelAlignment(t *testing.T) {
	if observability.LevelVerbose != 5 {
		t.Errorf("LevelVerbose = %d, want 5 (OTel DEBUG range)", observability.LevelVerbose)
	}
	if observability.LevelInfo != 9 {
		t.Errorf("LevelInfo = %d, want 9 (OTel INFO range)", observability.LevelInfo)
	}
	if observability.LevelWarning != 13 {
		t.Errorf("LevelWarning = %d, want 13 (OTel WARN range)", observability.LevelWarning)
	}
	if observability.LevelError != 17 {
		t.Errorf("LevelError = %d, want 17 (OTel ERROR range)", observability.LevelError)
	}
}

func TestNoOpObserver(t *testing.T) {
	obs := observability.NoOpObserver{}
	obs.OnEvent(context.Background(), observability.Event{
		Type:      "walker.notify",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "test",
		Data:      map[string]any{"key": "value"},
	})
}

func TestMultiObserver(t *testing.T) {
	var events1, events2 []observability.Event

	obs1 := &captureObserver{events: &events1}
	obs2 := &captureObserver{events: &events2}

	multi := observability.NewMultiObserver(obs1, obs2)

	event := observability.Event{
		Type:      "walker.notify",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "test",
		Data:      map[string]any{"key": "value"},
	}

	multi.OnEvent(context.Background(), event)

	if len(events1) != 1 {
		t.Errorf("observer 1 received %d events, want 1", len(events1))
	}
	if len(events2) != 1 {
		t.Errorf("observer 2 received %d events, want 1", len(events2))
	}
	if events1[0].Type != "walker.notify" {
		t.Errorf("observer 1 event type = %q, want %q", events1[0].Type, "walker.notify")
	}
}

func TestMultiObserver_NilFiltering(t *testing.T) {
	var events []observability.Event
	obs := &captureObserver{events: &events}

	multi := observability.NewMultiObserver(nil, obs, nil)

	multi.OnEvent(context.Background(), observability.Event{
		Type:  "walker.notify",
		Level: observability.LevelInfo,
	})

	if len(events) != 1 {
		t.Errorf("received %d events, want 1 (nil observers should be filtered)", len(events))
	}
	if multi.Len() != 1 {
		t.Errorf("Len() = %d, want 1", multi.Len())
	}

	multi.Add(nil)
	multi.Add(obs)
	if multi.Len() != 2 {
		t.Errorf("Len() after Add = %d, want 2", multi.Len())
	}
}

func TestLevelFilter(t *testing.T) {
	var events []observability.Event
	filter := observability.LevelFilter{
		Min:  observability.LevelWarning,
		Next: &captureObserver{events: &events},
	}

	for _, level := range []observability.Level{
		observability.LevelVerbose,
		observability.LevelInfo,
		observability.LevelWarning,
		observability.LevelError,
	} {
		filter.OnEvent(context.Background(), observability.Event{Type: "walker.overflow", Level: level})
	}

	if len(events) != 2 {
		t.Fatalf("received %d events, want 2", len(events))
	}
	if events[0].Level != observability.LevelWarning {
		t.Errorf("first forwarded level = %v, want %v", events[0].Level, observability.LevelWarning)
	}

	observability.LevelFilter{Min: observability.LevelVerbose}.OnEvent(context.Background(), observability.Event{})
}

func TestSlogObserver_LevelMapping(t *testing.T) {
	tests := []struct {
		name      string
		level     observability.Level
		minLevel  slog.Level
		expectLog bool
	}{
		{name: "verbose at debug handler", level: observability.LevelVerbose, minLevel: slog.LevelDebug, expectLog: true},
		{name: "verbose at info handler", level: observability.LevelVerbose, minLevel: slog.LevelInfo, expectLog: false},
		{name: "info at info handler", level: observability.LevelInfo, minLevel: slog.LevelInfo, expectLog: true},
		{name: "info at warn handler", level: observability.LevelInfo, minLevel: slog.LevelWarn, expectLog: false},
		{name: "warning at warn handler", level: observability.LevelWarning, minLevel: slog.LevelWarn, expectLog: true},
		{name: "error at error handler", level: observability.LevelError, minLevel: slog.LevelError, expectLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
				Level: tt.minLevel,
			}))

			obs := observability.NewSlogObserver(logger)
			obs.OnEvent(context.Background(), observability.Event{
				Type:      "walker.notify",
				Level:     tt.level,
				Timestamp: time.Now(),
				Source:    "test",
			})

			hasOutput := buf.Len() > 0
			if hasOutput != tt.expectLog {
				t.Errorf("log output = %v, want %v (buf: %q)", hasOutput, tt.expectLog, buf.String())
			}
		})
	}
}

func TestSlogObserver_EventTypeAsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	obs := observability.NewSlogObserver(logger)
	obs.OnEvent(context.Background(), observability.Event{
		Type:      "walker.create",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "chain.Walker",
		Data: map[string]any{
			"path":  "A.B",
			"depth": 2,
		},
	})

	output := buf.String()
	if !strings.Contains(output, "walker.create") {
		t.Errorf("expected event type as log message, got: %s", output)
	}
	if !strings.Contains(output, "source=chain.Walker") {
		t.Errorf("expected source attribute, got: %s", output)
	}
	if !strings.Contains(output, "depth=2 path=A.B") {
		t.Errorf("expected sorted data attributes, got: %s", output)
	}
}

func TestRegistry_GetObserver(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "noop exists", key: "noop", wantErr: false},
		{name: "slog exists", key: "slog", wantErr: false},
		{name: "otel exists", key: "otel", wantErr: false},
		{name: "unknown fails", key: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := observability.GetObserver(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetObserver(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if !tt.wantErr && obs == nil {
				t.Errorf("GetObserver(%q) returned nil observer", tt.key)
			}
		})
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	var events []observability.Event
	custom := &captureObserver{events: &events}

	observability.RegisterObserver("test-custom", custom)

	obs, err := observability.GetObserver("test-custom")
	if err != nil {
		t.Fatalf("GetObserver failed: %v", err)
	}

	obs.OnEvent(context.Background(), observability.Event{
		Type:  "walker.notify",
		Level: observability.LevelInfo,
	})

	if len(events) != 1 {
		t.Errorf("received %d events, want 1", len(events))
	}
}

func TestRegistry_UnknownListsNames(t *testing.T) {
	_, err := observability.GetObserver("nonexistent")
	if !errors.Is(err, observability.ErrUnknownObserver) {
		t.Fatalf("error = %v, want ErrUnknownObserver", err)
	}
	if !strings.Contains(err.Error(), "noop, otel") {
		t.Errorf("error %q does not list registered observers", err)
	}
}

func TestRegistry_OTelBuiltLazily(t *testing.T) {
	first, err := observability.GetObserver("otel")
	if err != nil {
		t.Fatalf("GetObserver(otel) failed: %v", err)
	}
	if _, ok := first.(*observability.OTelObserver); !ok {
		t.Fatalf("otel observer type = %T", first)
	}

	second, _ := observability.GetObserver("otel")
	if first != second {
		t.Error("otel observer was built twice")
	}
}

func TestRegistry_Factory(t *testing.T) {
	builds := 0
	fail := true
	observability.RegisterFactory("test-factory", func() (observability.Observer, error) {
		builds++
		if fail {
			return nil, errors.New("exporter unavailable")
		}
		return observability.NewRecorder(), nil
	})

	if _, err := observability.GetObserver("test-factory"); err == nil {
		t.Fatal("expected factory error")
	} else if !strings.Contains(err.Error(), "exporter unavailable") {
		t.Errorf("error = %v, want factory cause", err)
	}

	fail = false
	first, err := observability.GetObserver("test-factory")
	if err != nil {
		t.Fatalf("GetObserver failed after factory recovered: %v", err)
	}
	second, _ := observability.GetObserver("test-factory")

	if first != second {
		t.Error("factory result was not cached")
	}
	if builds != 2 {
		t.Errorf("builds = %d, want 2", builds)
	}

	found := false
	for _, name := range observability.Observers() {
		if name == "test-factory" {
			found = true
		}
	}
	if !found {
		t.Errorf("Observers() = %v, missing test-factory", observability.Observers())
	}
}

func TestSlogObserver_NilLoggerFollowsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	obs := observability.NewSlogObserver(nil)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	obs.OnEvent(context.Background(), observability.Event{
		Type:   "walker.overflow",
		Level:  observability.LevelWarning,
		Source: "chain.Walker",
	})

	if !strings.Contains(buf.String(), "walker.overflow") {
		t.Errorf("expected event on the current default logger, got: %q", buf.String())
	}
}

func TestEvent_WalkerKeys(t *testing.T) {
	e := observability.Event{Data: map[string]any{
		observability.KeyWalkerID: "w-1",
		observability.KeyPath:     "A.B",
	}}
	if e.WalkerID() != "w-1" || e.Path() != "A.B" {
		t.Errorf("WalkerID() = %q, Path() = %q", e.WalkerID(), e.Path())
	}

	var empty observability.Event
	if empty.WalkerID() != "" || empty.Path() != "" {
		t.Error("event without data should report empty walker keys")
	}
}

func TestObserverFunc(t *testing.T) {
	var got []observability.EventType
	obs := observability.ObserverFunc(func(ctx context.Context, e observability.Event) {
		got = append(got, e.Type)
	})

	obs.OnEvent(context.Background(), observability.Event{Type: "node.attach"})
	if len(got) != 1 || got[0] != "node.attach" {
		t.Errorf("got %v", got)
	}
}

type captureObserver struct {
	events *[]observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	*c.events = append(*c.events, event)
}

func TestRecorder_ForWalker(t *testing.T) {
	rec := observability.NewRecorder()
	for _, id := range []string{"a", "b", "a"} {
		rec.OnEvent(context.Background(), observability.Event{
			Type: "walker.notify",
			Data: map[string]any{observability.KeyWalkerID: id},
		})
	}

	if got := len(rec.ForWalker("a")); got != 2 {
		t.Errorf("ForWalker(a) = %d events, want 2", got)
	}
	if got := len(rec.ForWalker("c")); got != 0 {
		t.Errorf("ForWalker(c) = %d events, want 0", got)
	}
}

func TestRecorder(t *testing.T) {
	rec := observability.NewRecorder()

	rec.OnEvent(context.Background(), observability.Event{Type: "node.attach"})
	rec.OnEvent(context.Background(), observability.Event{Type: "node.detach"})
	rec.OnEvent(context.Background(), observability.Event{Type: "node.attach"})

	if got := len(rec.Events()); got != 3 {
		t.Errorf("Events() returned %d events, want 3", got)
	}
	if got := len(rec.OfType("node.attach")); got != 2 {
		t.Errorf("OfType(node.attach) returned %d events, want 2", got)
	}

	rec.Reset()
	if got := len(rec.Events()); got != 0 {
		t.Errorf("Events() after Reset returned %d events, want 0", got)
	}
}
