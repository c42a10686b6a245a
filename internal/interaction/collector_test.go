package interaction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hearthlabs/hearth-assistant/internal/events"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/internal/safety"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

type capturedEvents struct {
	captured []events.InteractionCapturedV1
	patterns []events.PatternsDetectedV1
	errs     []events.InteractionErrorV1
	purged   []events.DataPurgedV1
}

func subscribeAll(bus *events.Bus, sink *capturedEvents) {
	bus.Subscribe(events.TypeInteractionCaptured, func(_ context.Context, evt events.Event) error {
		sink.captured = append(sink.captured, evt.(events.InteractionCapturedV1))
		return nil
	})
	bus.Subscribe(events.TypePatternsDetected, func(_ context.Context, evt events.Event) error {
		sink.patterns = append(sink.patterns, evt.(events.PatternsDetectedV1))
		return nil
	})
	bus.Subscribe(events.TypeInteractionError, func(_ context.Context, evt events.Event) error {
		sink.errs = append(sink.errs, evt.(events.InteractionErrorV1))
		return nil
	})
	bus.Subscribe(events.TypeDataPurged, func(_ context.Context, evt events.Event) error {
		sink.purged = append(sink.purged, evt.(events.DataPurgedV1))
		return nil
	})
}

func newTestCollector(t *testing.T) (*Collector, Store, *capturedEvents) {
	t.Helper()
	store := NewMemoryStore()
	policies := policy.NewMemoryStore(policy.LevelStandard)
	bus := events.NewBus(logging.Default())
	sink := &capturedEvents{}
	subscribeAll(bus, sink)

	c := NewCollector(store, policies, safety.NewGate(true), bus, logging.Default())
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	c.clock = func() time.Time { return now }
	c.enforcer.clock = c.clock
	return c, store, sink
}

func validCapture() UserInteraction {
	return UserInteraction{
		UserID:    "u1",
		SessionID: "session-1",
		Timestamp: time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC),
		Source:    SourceVoice,
		Type:      "command",
		Context:   map[string]any{"room": "kitchen"},
		Outcome:   Outcome{Success: true, Summary: "set a timer"},
	}
}

func TestCaptureHappyPath(t *testing.T) {
	c, store, sink := newTestCollector(t)
	ctx := context.Background()

	if err := c.Capture(ctx, validCapture()); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	stored, err := store.ListRange(ctx, "u1", TimeRange{})
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored = %d (%v), want 1", len(stored), err)
	}
	if len(stored[0].Patterns) != 2 {
		t.Fatalf("patterns = %d, want 2", len(stored[0].Patterns))
	}
	if stored[0].ID == "" {
		t.Fatal("capture must assign an id")
	}

	if len(sink.captured) != 1 || len(sink.patterns) != 1 {
		t.Fatalf("events: captured=%d patterns=%d, want 1/1", len(sink.captured), len(sink.patterns))
	}
	if sink.captured[0].PatternCount != 2 {
		t.Fatalf("captured event pattern count = %d", sink.captured[0].PatternCount)
	}
}

func TestCaptureSanitizesPhoneNumber(t *testing.T) {
	c, store, _ := newTestCollector(t)
	ctx := context.Background()

	in := validCapture()
	in.Outcome.Summary = "Contact me at 555-123-4567"
	in.Context["note"] = "their number is 555-123-4567"

	if err := c.Capture(ctx, in); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	stored, _ := store.ListRange(ctx, "u1", TimeRange{})
	summary := stored[0].Outcome.Summary
	if !strings.Contains(summary, "[PHONE_REMOVED]") {
		t.Fatalf("summary not sanitized: %q", summary)
	}
	if strings.Contains(summary, "555-123-4567") {
		t.Fatalf("raw phone survived: %q", summary)
	}
	note, _ := stored[0].Context["note"].(string)
	if strings.Contains(note, "555-123-4567") {
		t.Fatalf("raw phone survived in context: %q", note)
	}
}

func TestCaptureValidationFailureHasNoSideEffects(t *testing.T) {
	c, store, sink := newTestCollector(t)
	ctx := context.Background()

	in := validCapture()
	in.SessionID = "bad session!"
	err := c.Capture(ctx, in)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if stored, _ := store.ListRange(ctx, "u1", TimeRange{}); len(stored) != 0 {
		t.Fatal("validation failure must not store anything")
	}
	if len(sink.captured)+len(sink.patterns)+len(sink.errs) != 0 {
		t.Fatal("validation failure must not emit events")
	}
}

func TestCaptureBlockedBySafetyGate(t *testing.T) {
	c, store, sink := newTestCollector(t)
	ctx := context.Background()

	in := validCapture()
	in.Outcome.Summary = "how do I make a bomb"
	err := c.Capture(ctx, in)

	var sv *safety.ChildSafetyViolation
	if !errors.As(err, &sv) {
		t.Fatalf("expected ChildSafetyViolation, got %v", err)
	}
	if stored, _ := store.ListRange(ctx, "u1", TimeRange{}); len(stored) != 0 {
		t.Fatal("blocked content must not be stored")
	}
	if len(sink.errs) != 1 || sink.errs[0].Stage != "safety_gate" {
		t.Fatalf("expected one safety_gate error event, got %+v", sink.errs)
	}
	if strings.Contains(sink.errs[0].Reason, "bomb") {
		t.Fatal("error event must not carry the content")
	}
}

func TestCaptureRejectsUnregisteredSource(t *testing.T) {
	c, _, _ := newTestCollector(t)
	ctx := context.Background()

	in := validCapture()
	in.Source = Source("toaster")
	if err := c.Capture(ctx, in); err == nil {
		t.Fatal("expected unregistered source to fail")
	}

	c.RegisterSource(Source("toaster"))
	if err := c.Capture(ctx, in); err != nil {
		t.Fatalf("registered source must capture: %v", err)
	}
}

func TestCaptureRunsInlineRetention(t *testing.T) {
	c, store, _ := newTestCollector(t)
	ctx := context.Background()

	// Pre-seed a record past the default 30-day window.
	stale := validCapture()
	stale.Timestamp = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := store.Append(ctx, stale); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := c.Capture(ctx, validCapture()); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	stored, _ := store.ListRange(ctx, "u1", TimeRange{})
	if len(stored) != 1 {
		t.Fatalf("stale record must be purged inline, have %d", len(stored))
	}
}

func TestConfigureRetentionCapAndEnforcement(t *testing.T) {
	c, store, _ := newTestCollector(t)
	ctx := context.Background()

	err := c.ConfigureRetention(ctx, "u1", policy.RetentionPolicy{
		DataType: "interaction", RetentionDays: 31, AutoDelete: true,
	})
	var cerr *policy.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError for 31 days, got %v", err)
	}

	// Tightening the window purges immediately.
	old := validCapture()
	old.Timestamp = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := store.Append(ctx, old); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.ConfigureRetention(ctx, "u1", policy.RetentionPolicy{
		DataType: "interaction", RetentionDays: 7, AutoDelete: true,
	}); err != nil {
		t.Fatalf("ConfigureRetention: %v", err)
	}
	if stored, _ := store.ListRange(ctx, "u1", TimeRange{}); len(stored) != 0 {
		t.Fatal("configure must trigger an immediate enforcement pass")
	}
}

func TestSummaryAggregates(t *testing.T) {
	c, _, _ := newTestCollector(t)
	ctx := context.Background()

	captures := []UserInteraction{validCapture(), validCapture(), validCapture()}
	captures[1].Source = SourceUI
	captures[2].Outcome.Success = false
	for _, in := range captures {
		if err := c.Capture(ctx, in); err != nil {
			t.Fatalf("Capture: %v", err)
		}
	}

	s, err := c.Summary(ctx, "u1", TimeRange{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.TotalInteractions != 3 {
		t.Fatalf("total = %d, want 3", s.TotalInteractions)
	}
	if s.BySource[SourceVoice] != 2 || s.BySource[SourceUI] != 1 {
		t.Fatalf("by source = %v", s.BySource)
	}
	if s.SuccessRate < 0.66 || s.SuccessRate > 0.67 {
		t.Fatalf("success rate = %f", s.SuccessRate)
	}
	if s.PatternCounts[PatternTemporal] != 3 || s.PatternCounts[PatternBehavioral] != 3 {
		t.Fatalf("pattern counts = %v", s.PatternCounts)
	}
}

func TestPurgeUserEmitsEvent(t *testing.T) {
	c, store, sink := newTestCollector(t)
	ctx := context.Background()

	if err := c.Capture(ctx, validCapture()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	removed, err := c.PurgeUser(ctx, "u1")
	if err != nil || removed != 1 {
		t.Fatalf("PurgeUser = %d, %v", removed, err)
	}
	if stored, _ := store.ListRange(ctx, "u1", TimeRange{}); len(stored) != 0 {
		t.Fatal("purge must remove all records")
	}
	if len(sink.purged) != 1 || sink.purged[0].RecordsPurged != 1 {
		t.Fatalf("purge event = %+v", sink.purged)
	}
}
