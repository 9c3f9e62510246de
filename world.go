package server

import (
	"context"
	"fmt"
	"math/rand"

	"warp-and-wind/server/logging"
	logginglifecycle "warp-and-wind/server/logging/lifecycle"
)

// World owns the authoritative simulation state.
type World struct {
	cfg       WorldConfig
	seed      string
	publisher logging.Publisher
	telemetry *telemetryCounters

	tick      uint64
	runSeq    uint64
	runActive bool

	snakes map[string]*snakeState
	order  []string

	foods       []Food
	nextFoodSeq uint64
	foodRNG     *rand.Rand
	spawnRNG    *rand.Rand

	hazards       []Hazard
	nextHazardSeq uint64
	hazardRNG     *rand.Rand

	portals   *PortalManager
	biome     *biomeSystem
	journal   *Journal
	keyframes *keyframePolicy
}

// WorldSnapshot is the full broadcast state for one tick.
type WorldSnapshot struct {
	Tick    uint64      `json:"tick"`
	Run     uint64      `json:"run"`
	Running bool        `json:"running"`
	Biome   Biome       `json:"biome"`
	Cols    int         `json:"cols"`
	Rows    int         `json:"rows"`
	Snakes  []SnakeView `json:"snakes"`
	Foods   []Food      `json:"foods"`
	Hazards []Hazard    `json:"hazards"`
	Portals []Portal    `json:"portals"`
}

// NewWorld constructs an idle world. Subsystems draw from independent seeded
// streams so replays stay stable as features come and go.
func NewWorld(cfg WorldConfig, publisher logging.Publisher) *World {
	normalized := cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	w := &World{
		cfg:       normalized,
		seed:      normalized.Seed,
		publisher: publisher,
		telemetry: &telemetryCounters{},
		snakes:    make(map[string]*snakeState),
		journal:   newJournal(journalConfigFromEnv()),
	}
	w.foodRNG = w.subsystemRNG("food.place")
	w.spawnRNG = w.subsystemRNG("snake.spawn")
	w.hazardRNG = w.subsystemRNG("hazards.seed")
	w.portals = newPortalManager(normalized, w.subsystemRNG("portals.cadence"), w.subsystemRNG("portals.place"))
	w.biome = newBiomeSystem(normalized, w.subsystemRNG("biome.shift"))
	w.keyframes = newKeyframePolicy(keyframeBurstThreshold)
	return w
}

// StartRun resets the field for a fresh run. Snakes keep their identity but
// respawn with starting chains; scores, pellets, pairs, and the biome reset.
// The tick counter keeps counting across runs.
func (w *World) StartRun() {
	w.runSeq++
	w.runActive = true
	w.foods = nil
	w.hazards = nil
	w.portals.StartRun()
	w.biome.reset()
	w.journal.Append(Patch{
		Kind:    PatchRunStarted,
		Tick:    w.tick,
		Payload: RunPayload{Run: w.runSeq},
	})
	for _, id := range w.order {
		w.snakes[id].Segments = nil
	}
	for _, id := range w.order {
		w.respawnSnake(w.snakes[id])
	}
	w.seedHazards()
	w.seedFood()
	logginglifecycle.RunStarted(
		context.Background(),
		w.publisher,
		w.tick,
		worldRef(),
		logginglifecycle.RunStartedPayload{Run: w.runSeq, Seed: w.seed},
		nil,
	)
	w.telemetry.runsStarted.Add(1)
}

// StopRun freezes the run in place. Chains, pellets, and pairs stay on the
// field for the post-run view; nothing advances until the next start.
func (w *World) StopRun(reason string) {
	if !w.runActive {
		return
	}
	w.runActive = false
	w.portals.StopRun()
	w.journal.Append(Patch{
		Kind:    PatchRunEnded,
		Tick:    w.tick,
		Payload: RunPayload{Run: w.runSeq},
	})
	logginglifecycle.RunEnded(
		context.Background(),
		w.publisher,
		w.tick,
		worldRef(),
		logginglifecycle.RunEndedPayload{Run: w.runSeq, Reason: reason},
		nil,
	)
}

// RunActive reports whether a run is currently advancing.
func (w *World) RunActive() bool {
	return w.runActive
}

// HasSnake reports whether the world currently tracks the given snake.
func (w *World) HasSnake(id string) bool {
	_, ok := w.snakes[id]
	return ok
}

// AddSnake lays a fresh chain for id and returns its view. Joining an idle
// world starts a run.
func (w *World) AddSnake(id string) (SnakeView, error) {
	if id == "" {
		return SnakeView{}, fmt.Errorf("snake id required")
	}
	if _, exists := w.snakes[id]; exists {
		return SnakeView{}, fmt.Errorf("snake %q already joined", id)
	}
	head, facing, ok := w.spawnPositionFor(w.cfg.SnakeStartLength)
	if !ok {
		return SnakeView{}, fmt.Errorf("no room to lay a chain")
	}
	s := newSnakeState(id, head, facing, w.cfg.SnakeStartLength)
	w.snakes[id] = s
	w.order = append(w.order, id)
	w.journal.Append(Patch{
		Kind:     PatchSnakeSpawned,
		Tick:     w.tick,
		EntityID: id,
		Payload:  SnakeSpawnedPayload{Segments: append([]GridPos(nil), s.Segments...), Facing: s.Facing},
	})
	logginglifecycle.SnakeJoined(
		context.Background(),
		w.publisher,
		w.tick,
		snakeRef(id),
		logginglifecycle.SnakeJoinedPayload{HeadCol: head.Col, HeadRow: head.Row, Length: len(s.Segments)},
		nil,
	)
	if !w.runActive {
		w.StartRun()
	}
	return s.view(), nil
}

// RemoveSnake detaches a player entirely. The last departure ends the run.
func (w *World) RemoveSnake(id string) bool {
	if _, ok := w.snakes[id]; !ok {
		return false
	}
	delete(w.snakes, id)
	for i, existing := range w.order {
		if existing == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.journal.Append(Patch{Kind: PatchSnakeLeft, Tick: w.tick, EntityID: id})
	logginglifecycle.SnakeLeft(
		context.Background(),
		w.publisher,
		w.tick,
		snakeRef(id),
		logginglifecycle.SnakeLeftPayload{Reason: "left"},
		nil,
	)
	if len(w.snakes) == 0 {
		w.StopRun("all players left")
	}
	return true
}

// respawnSnake relays a chain for the snake at a fresh spawn cell, clearing
// score, cadence, grace, and transit state.
func (w *World) respawnSnake(s *snakeState) {
	head, facing, ok := w.spawnPositionFor(w.cfg.SnakeStartLength)
	if !ok {
		// Degenerate boards tolerate overlap rather than refusing the run.
		head, facing = GridPos{}, defaultFacing
	}
	fresh := newSnakeState(s.ID, head, facing, w.cfg.SnakeStartLength)
	s.Snake = fresh.Snake
	s.pendingFacings = nil
	s.stepAccumMS = 0
	s.immunityMS = 0
	s.transit = nil
	w.journal.Append(Patch{
		Kind:     PatchSnakeSpawned,
		Tick:     w.tick,
		EntityID: s.ID,
		Payload:  SnakeSpawnedPayload{Segments: append([]GridPos(nil), s.Segments...), Facing: s.Facing},
	})
}

// spawnPositionFor finds a head cell whose whole starting chain is in bounds
// and clear of chains, pellets, and endpoints. Random draws come first, then
// a row-major scan so crowded boards still place when any spot exists.
func (w *World) spawnPositionFor(length int) (GridPos, FacingDirection, bool) {
	facing := defaultFacing
	blocked := w.placementBlocked()
	fits := func(head GridPos) bool {
		pos := head
		back := facing.Opposite()
		for i := 0; i < length; i++ {
			if !inBounds(pos, w.cfg.GridCols, w.cfg.GridRows) || blocked(pos) {
				return false
			}
			pos = pos.Stepped(back)
		}
		return true
	}
	for attempt := 0; attempt < placementAttemptLimit; attempt++ {
		head, ok := randomFreeCell(w.cfg.GridCols, w.cfg.GridRows, blocked, w.spawnRNG)
		if !ok {
			break
		}
		if fits(head) {
			return head, facing, true
		}
	}
	for _, head := range freeCells(w.cfg.GridCols, w.cfg.GridRows, blocked) {
		if fits(head) {
			return head, facing, true
		}
	}
	return GridPos{}, facing, false
}

// occupiedCells collects every cell covered by live chains, pellets, and
// hazards.
func (w *World) occupiedCells() CellSet {
	cells := NewCellSet()
	for _, id := range w.order {
		s := w.snakes[id]
		if !s.Alive {
			continue
		}
		for _, seg := range s.Segments {
			cells.Add(seg)
		}
	}
	for _, f := range w.foods {
		cells.Add(f.Position)
	}
	for _, h := range w.hazards {
		cells.Add(h.Position)
	}
	return cells
}

// placementBlocked excludes portal endpoints on top of chains and pellets.
func (w *World) placementBlocked() OccupancyFunc {
	cells := w.occupiedCells()
	portals := w.portals
	return func(pos GridPos) bool {
		if cells.Blocked(pos) {
			return true
		}
		return portals != nil && portals.occupiesEndpoint(pos)
	}
}

// Snapshot copies the field into its broadcast form. Snakes appear in join
// order.
func (w *World) Snapshot() WorldSnapshot {
	snakes := make([]SnakeView, 0, len(w.order))
	for _, id := range w.order {
		snakes = append(snakes, w.snakes[id].view())
	}
	return WorldSnapshot{
		Tick:    w.tick,
		Run:     w.runSeq,
		Running: w.runActive,
		Biome:   w.biome.current,
		Cols:    w.cfg.GridCols,
		Rows:    w.cfg.GridRows,
		Snakes:  snakes,
		Foods:   append([]Food(nil), w.foods...),
		Hazards: append([]Hazard(nil), w.hazards...),
		Portals: w.portals.portals(),
	}
}

// DrainPatches hands the accumulated patches to the broadcaster and clears
// the journal.
func (w *World) DrainPatches() []Patch {
	return w.journal.Drain()
}

// maybeKeyframe records a recovery keyframe when the cadence comes due or a
// patch burst forces one early.
func (w *World) maybeKeyframe() {
	w.keyframes.observe(w.journal.pending)
	due := w.journal.ShouldKeyframe(w.tick)
	if burst, forced := w.keyframes.consume(); forced {
		due = true
		logginglifecycle.KeyframeForced(
			context.Background(),
			w.publisher,
			w.tick,
			worldRef(),
			logginglifecycle.KeyframeForcedPayload{Patches: burst.Patches, Reasons: burst.reasonStrings()},
			nil,
		)
		w.telemetry.keyframesForced.Add(1)
	}
	if due {
		w.journal.RecordKeyframe(w.tick, w.Snapshot())
	}
}

// ForceKeyframe records a recovery keyframe immediately, outside the
// cadence. Used after world resets so resyncs see the new field.
func (w *World) ForceKeyframe() Keyframe {
	return w.journal.RecordKeyframe(w.tick, w.Snapshot())
}

// KeyframeInterval exposes the keyframe cadence for join handshakes.
func (w *World) KeyframeInterval() int {
	return w.journal.cfg.KeyframeInterval
}

// LatestKeyframe returns the newest retained recovery snapshot.
func (w *World) LatestKeyframe() (Keyframe, bool) {
	return w.journal.LatestKeyframe()
}

// KeyframeBySequence returns a retained recovery snapshot by sequence.
func (w *World) KeyframeBySequence(seq uint64) (Keyframe, bool) {
	return w.journal.KeyframeBySequence(seq)
}

// Telemetry snapshots the world counters for diagnostics.
func (w *World) Telemetry() TelemetrySnapshot {
	return w.telemetry.Snapshot()
}

// PortalStats snapshots spawn outcomes for diagnostics.
func (w *World) PortalStats() PortalManagerStats {
	return w.portals.Stats()
}

// Config returns the normalized world tuning.
func (w *World) Config() WorldConfig {
	return w.cfg
}

func snakeRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindSnake}
}

func pairRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPortal}
}

func biomeRef() logging.EntityRef {
	return logging.EntityRef{Kind: logging.EntityKindBiome}
}

func worldRef() logging.EntityRef {
	return logging.EntityRef{Kind: logging.EntityKindWorld}
}
