package lifecycle

import (
	"context"

	"warp-and-wind/server/logging"
)

const (
	// EventRunStarted is emitted when a fresh run begins.
	EventRunStarted logging.EventType = "lifecycle.run_started"
	// EventRunEnded is emitted when a run finishes or is abandoned.
	EventRunEnded logging.EventType = "lifecycle.run_ended"
	// EventSnakeJoined is emitted when a snake joins the world.
	EventSnakeJoined logging.EventType = "lifecycle.snake_joined"
	// EventSnakeLeft is emitted when a snake leaves the world.
	EventSnakeLeft logging.EventType = "lifecycle.snake_left"
	// EventSnakeDied is emitted when a snake dies.
	EventSnakeDied logging.EventType = "lifecycle.snake_died"
	// EventBiomeShifted is emitted when the board rotates to a new biome.
	EventBiomeShifted logging.EventType = "lifecycle.biome_shifted"
	// EventKeyframeForced is emitted when a patch burst forces an
	// off-cadence keyframe.
	EventKeyframeForced logging.EventType = "lifecycle.keyframe_forced"
)

// RunStartedPayload captures the identity of a new run.
type RunStartedPayload struct {
	Run  uint64 `json:"run"`
	Seed string `json:"seed"`
}

// RunEndedPayload captures why a run stopped.
type RunEndedPayload struct {
	Run    uint64 `json:"run"`
	Reason string `json:"reason"`
}

// SnakeJoinedPayload captures spawn metadata for a new snake.
type SnakeJoinedPayload struct {
	HeadCol int `json:"headCol"`
	HeadRow int `json:"headRow"`
	Length  int `json:"length"`
}

// SnakeLeftPayload captures the reason a snake left.
type SnakeLeftPayload struct {
	Reason string `json:"reason"`
}

// SnakeDiedPayload captures the fatal collision and final stats.
type SnakeDiedPayload struct {
	Cause  string `json:"cause"`
	Length int    `json:"length"`
	Score  int    `json:"score"`
}

// BiomeShiftedPayload names the biome now in effect.
type BiomeShiftedPayload struct {
	Biome string `json:"biome"`
}

// KeyframeForcedPayload sizes the patch burst behind an early keyframe.
type KeyframeForcedPayload struct {
	Patches int      `json:"patches"`
	Reasons []string `json:"reasons,omitempty"`
}

// RunStarted publishes a run start event.
func RunStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RunStartedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventRunStarted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// RunEnded publishes a run end event.
func RunEnded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RunEndedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventRunEnded,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SnakeJoined publishes a snake join event.
func SnakeJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SnakeJoinedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSnakeJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SnakeLeft publishes a snake departure event.
func SnakeLeft(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SnakeLeftPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSnakeLeft,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SnakeDied publishes a snake death event.
func SnakeDied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SnakeDiedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSnakeDied,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// BiomeShifted publishes a biome rotation event.
func BiomeShifted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BiomeShiftedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventBiomeShifted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// KeyframeForced publishes an off-cadence keyframe event.
func KeyframeForced(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload KeyframeForcedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventKeyframeForced,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
