package traversal

import (
	"context"

	"warp-and-wind/server/logging"
)

const (
	// EventTransitOpened is emitted when a snake head warps and its chain
	// begins threading through the pair.
	EventTransitOpened logging.EventType = "traversal.transit_opened"
	// EventSegmentThreaded is emitted each time one body segment crosses.
	EventSegmentThreaded logging.EventType = "traversal.segment_threaded"
	// EventTransitCompleted is emitted when the last segment crosses.
	EventTransitCompleted logging.EventType = "traversal.transit_completed"
	// EventTransitForced is emitted when a broken pair snaps the remainder
	// of a chain to the exit side.
	EventTransitForced logging.EventType = "traversal.transit_forced"
	// EventImmunityGranted is emitted when a snake receives a self-collision
	// grace window.
	EventImmunityGranted logging.EventType = "traversal.immunity_granted"
	// EventImmunityExpired is emitted when the grace window runs out.
	EventImmunityExpired logging.EventType = "traversal.immunity_expired"
)

// TransitOpenedPayload records the endpoints a chain is threading between.
type TransitOpenedPayload struct {
	PairID            string `json:"pairId"`
	EntryCol          int    `json:"entryCol"`
	EntryRow          int    `json:"entryRow"`
	ExitCol           int    `json:"exitCol"`
	ExitRow           int    `json:"exitRow"`
	SegmentsRemaining int    `json:"segmentsRemaining"`
}

// SegmentThreadedPayload records progress through an open transit.
type SegmentThreadedPayload struct {
	PairID            string `json:"pairId"`
	SegmentsRemaining int    `json:"segmentsRemaining"`
}

// TransitForcedPayload records how many segments were snapped across.
type TransitForcedPayload struct {
	PairID        string `json:"pairId"`
	SegmentsMoved int    `json:"segmentsMoved"`
}

// ImmunityPayload records the grace window attached to a snake.
type ImmunityPayload struct {
	RemainingMS float64 `json:"remainingMs"`
}

// TransitOpened publishes a transit start event.
func TransitOpened(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TransitOpenedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTransitOpened,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SegmentThreaded publishes a single segment crossing.
func SegmentThreaded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SegmentThreadedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSegmentThreaded,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TransitCompleted publishes a transit completion event.
func TransitCompleted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SegmentThreadedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTransitCompleted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TransitForced publishes a forced completion event.
func TransitForced(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TransitForcedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTransitForced,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ImmunityGranted publishes an immunity grant event.
func ImmunityGranted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ImmunityPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventImmunityGranted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ImmunityExpired publishes an immunity expiry event.
func ImmunityExpired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventImmunityExpired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
