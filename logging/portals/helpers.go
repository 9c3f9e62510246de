package portals

import (
	"context"

	"warp-and-wind/server/logging"
)

const (
	// EventPairSpawned is emitted when a linked portal pair materialises.
	EventPairSpawned logging.EventType = "portals.pair_spawned"
	// EventPhaseChanged is emitted whenever a pair crosses a phase boundary.
	EventPhaseChanged logging.EventType = "portals.phase_changed"
	// EventPairDespawned is emitted when a collapsed pair leaves the board.
	EventPairDespawned logging.EventType = "portals.pair_despawned"
	// EventSpawnSkipped is emitted when a scheduled spawn could not place.
	EventSpawnSkipped logging.EventType = "portals.spawn_skipped"
	// EventCollapseForced is emitted when live pairs are collapsed early.
	EventCollapseForced logging.EventType = "portals.collapse_forced"
)

// PairSpawnedPayload records where both endpoints landed.
type PairSpawnedPayload struct {
	ACol int `json:"aCol"`
	ARow int `json:"aRow"`
	BCol int `json:"bCol"`
	BRow int `json:"bRow"`
}

// PhaseChangedPayload records a single lifecycle transition.
type PhaseChangedPayload struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	ElapsedMS float64 `json:"elapsedMs"`
}

// SpawnSkippedPayload names why the spawn attempt was abandoned.
type SpawnSkippedPayload struct {
	Reason string `json:"reason"`
}

// CollapseForcedPayload records an early collapse sweep.
type CollapseForcedPayload struct {
	Reason string `json:"reason"`
	Pairs  int    `json:"pairs"`
}

// PairSpawned publishes a portal spawn event.
func PairSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PairSpawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPairSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPortals,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// PhaseChanged publishes a portal phase transition event.
func PhaseChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PhaseChangedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPhaseChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPortals,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// PairDespawned publishes a portal despawn event.
func PairDespawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPairDespawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPortals,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SpawnSkipped publishes a skipped spawn event.
func SpawnSkipped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnSkippedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSpawnSkipped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPortals,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// CollapseForced publishes a forced collapse event.
func CollapseForced(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CollapseForcedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventCollapseForced,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryPortals,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
