package surfaces

import (
	"context"
	"testing"

	"surfacefx/logging"
	"surfacefx/logging/sinks"
)

func TestHelpersPublishTypedEvents(t *testing.T) {
	sink := sinks.NewMemorySink()
	ctx := context.Background()
	actor := logging.EntityRef{ID: "a", Kind: logging.EntityKindEffect}

	ImpactPlayed(ctx, sink, 1, actor, nil, ImpactPlayedPayload{Volume: 0.2})
	FrictionReassigned(ctx, sink, 2, actor, FrictionReassignedPayload{Channel: 1, To: "gravel"})
	DefaultSubstituted(ctx, sink, 3, actor, nil, DefaultSubstitutedPayload{Strategy: "keyword", DefaultType: "concrete"})
	ContactSkipped(ctx, sink, 4, actor, nil, ContactSkippedPayload{Reason: "zero_delta_time"})

	events := sink.Events()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	want := []struct {
		eventType logging.EventType
		severity  logging.Severity
	}{
		{EventImpactPlayed, logging.SeverityDebug},
		{EventFrictionReassigned, logging.SeverityDebug},
		{EventDefaultSubstituted, logging.SeverityWarn},
		{EventContactSkipped, logging.SeverityDebug},
	}
	for i, w := range want {
		if events[i].Type != w.eventType || events[i].Severity != w.severity {
			t.Fatalf("event %d = %s/%v, want %s/%v", i, events[i].Type, events[i].Severity, w.eventType, w.severity)
		}
		if events[i].Category != logging.CategorySurfaces || events[i].Tick != uint64(i+1) {
			t.Fatalf("event %d has category %q tick %d", i, events[i].Category, events[i].Tick)
		}
	}
	payload, ok := events[1].Payload.(FrictionReassignedPayload)
	if !ok || payload.To != "gravel" {
		t.Fatalf("unexpected payload %#v", events[1].Payload)
	}

	ImpactPlayed(ctx, nil, 5, actor, nil, ImpactPlayedPayload{})
}
