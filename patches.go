package server

import (
	"os"
	"strconv"
	"strings"
)

// PatchKind names one kind of incremental world change carried to clients.
type PatchKind string

const (
	// PatchRunStarted marks a fresh run: snakes respawned, field reseeded.
	PatchRunStarted PatchKind = "run.started"
	// PatchRunEnded marks the death of the last snake.
	PatchRunEnded PatchKind = "run.ended"

	// PatchSnakeSpawned carries a freshly laid chain.
	PatchSnakeSpawned PatchKind = "snake.spawned"
	// PatchSnakeMoved carries one chain step.
	PatchSnakeMoved PatchKind = "snake.moved"
	// PatchSnakeGrew reports a pellet converting into a segment.
	PatchSnakeGrew PatchKind = "snake.grew"
	// PatchSnakeDied reports a death and its cause.
	PatchSnakeDied PatchKind = "snake.died"
	// PatchSnakeLeft reports a player detaching from the field.
	PatchSnakeLeft PatchKind = "snake.left"

	// PatchFoodSpawned places a pellet.
	PatchFoodSpawned PatchKind = "food.spawned"
	// PatchFoodEaten removes a pellet into a snake.
	PatchFoodEaten PatchKind = "food.eaten"

	// PatchHazardSeeded places a deadly cell for the run.
	PatchHazardSeeded PatchKind = "hazard.seeded"

	// PatchPortalSpawned announces a freshly placed pair.
	PatchPortalSpawned PatchKind = "portal.spawned"
	// PatchPortalPhase reports one lifecycle boundary crossing.
	PatchPortalPhase PatchKind = "portal.phase"
	// PatchPortalDespawned removes a fully collapsed pair.
	PatchPortalDespawned PatchKind = "portal.despawned"

	// PatchTransitOpened starts a chain threading through a pair.
	PatchTransitOpened PatchKind = "transit.opened"
	// PatchTransitThreaded reports one segment pulled through.
	PatchTransitThreaded PatchKind = "transit.threaded"
	// PatchTransitCompleted reports a chain finishing its crossing.
	PatchTransitCompleted PatchKind = "transit.completed"
	// PatchTransitForced reports an emergency completion after a collapse.
	PatchTransitForced PatchKind = "transit.forced"

	// PatchImmunityGranted opens a self-collision grace window.
	PatchImmunityGranted PatchKind = "immunity.granted"
	// PatchImmunityExpired closes it.
	PatchImmunityExpired PatchKind = "immunity.expired"

	// PatchBiomeShifted rotates the field biome.
	PatchBiomeShifted PatchKind = "biome.shifted"
)

// Patch is one incremental change, stamped with the tick it happened on.
type Patch struct {
	Kind     PatchKind `json:"kind"`
	Tick     uint64    `json:"tick"`
	EntityID string    `json:"entityId,omitempty"`
	Payload  any       `json:"payload,omitempty"`
}

// RunPayload identifies a run boundary.
type RunPayload struct {
	Run uint64 `json:"run"`
}

// SnakeSpawnedPayload carries a fresh chain layout.
type SnakeSpawnedPayload struct {
	Segments []GridPos       `json:"segments"`
	Facing   FacingDirection `json:"facing"`
}

// SnakeMovedPayload carries the head cell and facing after one chain step.
// Grew marks steps where the tail held its cell, so replayers know not to
// drop it.
type SnakeMovedPayload struct {
	Head   GridPos         `json:"head"`
	Facing FacingDirection `json:"facing"`
	Grew   bool            `json:"grew,omitempty"`
}

// SnakeGrewPayload reports the new length and score.
type SnakeGrewPayload struct {
	Length int `json:"length"`
	Score  int `json:"score"`
}

// SnakeDiedPayload reports the cause of death.
type SnakeDiedPayload struct {
	Cause DeathCause `json:"cause"`
}

// FoodSpawnedPayload places a pellet.
type FoodSpawnedPayload struct {
	Position GridPos `json:"position"`
}

// FoodEatenPayload credits a pellet to a snake.
type FoodEatenPayload struct {
	SnakeID  string  `json:"snakeId"`
	Position GridPos `json:"position"`
}

// HazardSeededPayload places a deadly cell.
type HazardSeededPayload struct {
	Type     HazardType `json:"type"`
	Position GridPos    `json:"position"`
}

// PortalSpawnedPayload carries both endpoints of a new pair.
type PortalSpawnedPayload struct {
	A PortalEndpoint `json:"a"`
	B PortalEndpoint `json:"b"`
}

// PortalPhasePayload reports one lifecycle crossing.
type PortalPhasePayload struct {
	From      PortalPhase `json:"from"`
	To        PortalPhase `json:"to"`
	ElapsedMS float64     `json:"elapsedMs"`
}

// TransitPayload snapshots threading progress for a snake.
type TransitPayload struct {
	SnakeID           string  `json:"snakeId"`
	PairID            string  `json:"pairId"`
	EntryPos          GridPos `json:"entryPos"`
	ExitPos           GridPos `json:"exitPos"`
	SegmentsRemaining int     `json:"segmentsRemaining"`
}

// TransitForcedPayload reports an emergency completion. ExitPos is where the
// stranded segments snapped to.
type TransitForcedPayload struct {
	SnakeID       string  `json:"snakeId"`
	PairID        string  `json:"pairId"`
	ExitPos       GridPos `json:"exitPos"`
	SegmentsMoved int     `json:"segmentsMoved"`
}

// ImmunityPayload reports the remaining grace window.
type ImmunityPayload struct {
	RemainingMS float64 `json:"remainingMs"`
}

// BiomeShiftedPayload carries the new biome.
type BiomeShiftedPayload struct {
	Biome Biome `json:"biome"`
}

// journalConfig carries the keyframe retention knobs, read once from the
// environment at world construction.
type journalConfig struct {
	KeyframeInterval int
	KeyframeLimit    int
	KeyframeMaxAge   uint64
}

func defaultJournalConfig() journalConfig {
	return journalConfig{
		KeyframeInterval: defaultKeyframeInterval,
		KeyframeLimit:    defaultKeyframeLimit,
		KeyframeMaxAge:   defaultKeyframeMaxAgeTicks,
	}
}

// journalConfigFromEnv overlays environment overrides onto the defaults.
// Malformed or non-positive values fall back silently.
func journalConfigFromEnv() journalConfig {
	cfg := defaultJournalConfig()
	if v, ok := positiveEnvInt(envKeyframeInterval); ok {
		cfg.KeyframeInterval = v
	}
	if v, ok := positiveEnvInt(envKeyframeLimit); ok {
		cfg.KeyframeLimit = v
	}
	if v, ok := positiveEnvInt(envKeyframeMaxAge); ok {
		cfg.KeyframeMaxAge = uint64(v)
	}
	return cfg
}

func positiveEnvInt(name string) (int, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Keyframe is a full snapshot clients can resync from.
type Keyframe struct {
	Sequence uint64        `json:"sequence"`
	Tick     uint64        `json:"tick"`
	State    WorldSnapshot `json:"state"`
}

// Journal accumulates patches between broadcasts and retains a bounded
// window of keyframes for late joiners.
type Journal struct {
	cfg     journalConfig
	pending []Patch
	frames  []Keyframe
	nextSeq uint64
}

func newJournal(cfg journalConfig) *Journal {
	if cfg.KeyframeInterval <= 0 {
		cfg.KeyframeInterval = defaultKeyframeInterval
	}
	if cfg.KeyframeLimit <= 0 {
		cfg.KeyframeLimit = defaultKeyframeLimit
	}
	if cfg.KeyframeMaxAge == 0 {
		cfg.KeyframeMaxAge = defaultKeyframeMaxAgeTicks
	}
	return &Journal{cfg: cfg}
}

// Append queues one patch for the next drain.
func (j *Journal) Append(p Patch) {
	if j == nil {
		return
	}
	j.pending = append(j.pending, p)
}

// Drain returns the queued patches and clears the queue.
func (j *Journal) Drain() []Patch {
	if j == nil || len(j.pending) == 0 {
		return nil
	}
	drained := j.pending
	j.pending = nil
	return drained
}

// ShouldKeyframe reports whether tick lands on the keyframe cadence.
func (j *Journal) ShouldKeyframe(tick uint64) bool {
	if j == nil {
		return false
	}
	return tick%uint64(j.cfg.KeyframeInterval) == 0
}

// RecordKeyframe stores a full snapshot and prunes the retention window by
// count and age.
func (j *Journal) RecordKeyframe(tick uint64, state WorldSnapshot) Keyframe {
	j.nextSeq++
	frame := Keyframe{Sequence: j.nextSeq, Tick: tick, State: state}
	j.frames = append(j.frames, frame)
	j.prune(tick)
	return frame
}

func (j *Journal) prune(now uint64) {
	frames := j.frames
	if len(frames) > j.cfg.KeyframeLimit {
		frames = frames[len(frames)-j.cfg.KeyframeLimit:]
	}
	var cutoff uint64
	if now > j.cfg.KeyframeMaxAge {
		cutoff = now - j.cfg.KeyframeMaxAge
	}
	start := 0
	for start < len(frames) && frames[start].Tick < cutoff {
		start++
	}
	j.frames = frames[start:]
}

// LatestKeyframe returns the newest retained snapshot.
func (j *Journal) LatestKeyframe() (Keyframe, bool) {
	if j == nil || len(j.frames) == 0 {
		return Keyframe{}, false
	}
	return j.frames[len(j.frames)-1], true
}

// KeyframeBySequence returns a retained keyframe by its sequence number.
func (j *Journal) KeyframeBySequence(seq uint64) (Keyframe, bool) {
	if j == nil {
		return Keyframe{}, false
	}
	for i := len(j.frames) - 1; i >= 0; i-- {
		if j.frames[i].Sequence == seq {
			return j.frames[i], true
		}
	}
	return Keyframe{}, false
}

// KeyframeCount reports the retained window size for diagnostics.
func (j *Journal) KeyframeCount() int {
	if j == nil {
		return 0
	}
	return len(j.frames)
}
