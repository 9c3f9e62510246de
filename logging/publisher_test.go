package logging

import (
	"context"
	"testing"
)

type recordingPublisher struct {
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) {
	p.events = append(p.events, event)
}

func TestWithFieldsMergesWithoutClobbering(t *testing.T) {
	t.Parallel()

	next := &recordingPublisher{}
	pub := WithFields(next, map[string]any{"node": "arena-1", "build": "dev"})

	pub.Publish(context.Background(), Event{Type: "one"})
	pub.Publish(context.Background(), Event{Type: "two", Extra: map[string]any{"node": "mine"}})

	if len(next.events) != 2 {
		t.Fatalf("published %d events", len(next.events))
	}
	first := next.events[0]
	if first.Extra["node"] != "arena-1" || first.Extra["build"] != "dev" {
		t.Fatalf("fields not merged: %v", first.Extra)
	}
	second := next.events[1]
	if second.Extra["node"] != "mine" {
		t.Fatalf("caller extra clobbered: %v", second.Extra["node"])
	}
	if second.Extra["build"] != "dev" {
		t.Fatalf("missing merged field: %v", second.Extra)
	}
}

func TestWithFieldsLeavesCallerEventAlone(t *testing.T) {
	t.Parallel()

	next := &recordingPublisher{}
	pub := WithFields(next, map[string]any{"node": "arena-1"})

	original := Event{Type: "one", Extra: map[string]any{"k": "v"}}
	pub.Publish(context.Background(), original)

	if _, leaked := original.Extra["node"]; leaked {
		t.Fatal("publish mutated the caller's extra map")
	}
}

func TestWithFieldsDegenerateWrapping(t *testing.T) {
	t.Parallel()

	// Nil target still yields a safe publisher.
	pub := WithFields(nil, map[string]any{"node": "x"})
	pub.Publish(context.Background(), Event{Type: "one"})

	// Empty fields add nothing.
	next := &recordingPublisher{}
	bare := WithFields(next, nil)
	bare.Publish(context.Background(), Event{Type: "two"})
	if len(next.events) != 1 || next.events[0].Extra != nil {
		t.Fatalf("empty fields altered event: %+v", next.events)
	}
}

func TestPublisherFuncNilSafety(t *testing.T) {
	t.Parallel()

	var fn PublisherFunc
	fn.Publish(context.Background(), Event{Type: "ignored"})

	NopPublisher().Publish(context.Background(), Event{Type: "ignored"})
}

func TestEventWithExtra(t *testing.T) {
	t.Parallel()

	event := Event{Type: "one"}
	tagged := event.WithExtra("pairId", "pair-3")
	if tagged.Extra["pairId"] != "pair-3" {
		t.Fatalf("extra not attached: %v", tagged.Extra)
	}

	again := tagged.WithExtra("snakeId", "s1")
	if again.Extra["pairId"] != "pair-3" || again.Extra["snakeId"] != "s1" {
		t.Fatalf("extras %v", again.Extra)
	}
}
