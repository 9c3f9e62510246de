package server

import (
	"fmt"
	"math"
)

// PortalSpawn describes one pair that materialized during an update.
type PortalSpawn struct {
	PairID string         `json:"pairId"`
	A      PortalEndpoint `json:"a"`
	B      PortalEndpoint `json:"b"`
}

// PortalUpdate batches everything a single manager update produced, in the
// order it happened: lifecycle transitions first, despawns, then spawns.
type PortalUpdate struct {
	Spawned     []PortalSpawn
	Transitions []PortalTransition
	Despawned   []string
}

// PortalManagerStats counts spawn outcomes since the last run start.
type PortalManagerStats struct {
	Spawned           int `json:"spawned"`
	SkippedCapacity   int `json:"skippedCapacity"`
	SkippedNoRoom     int `json:"skippedNoRoom"`
	SkippedSeparation int `json:"skippedSeparation"`
}

// PortalManager owns every live pair plus the spawn cadence. It never reads
// the clock or ambient randomness; the world feeds it deltas, an occupancy
// predicate, and two seeded streams.
type PortalManager struct {
	cols int
	rows int

	baseIntervalMS float64
	jitterMS       float64
	maxActivePairs int
	minSeparation  int
	durations      PortalDurations

	cadence   RandomSource
	placement RandomSource

	pairs         []*portalState
	spawnTimerMS  float64
	spawnTargetMS float64
	running       bool

	nextPairSeq int
	stats       PortalManagerStats
}

// newPortalManager builds a manager from the world tuning. The cadence source
// drives interval jitter, the placement source drives cell draws.
func newPortalManager(cfg WorldConfig, cadence, placement RandomSource) *PortalManager {
	cfg = cfg.normalized()
	m := &PortalManager{
		cols:           cfg.GridCols,
		rows:           cfg.GridRows,
		baseIntervalMS: cfg.PortalBaseIntervalMS,
		jitterMS:       cfg.PortalJitterMS,
		maxActivePairs: cfg.PortalMaxActivePairs,
		minSeparation:  cfg.PortalMinSeparation,
		durations:      cfg.portalDurations().normalized(),
		cadence:        cadence,
		placement:      placement,
	}
	if m.maxActivePairs < 1 {
		m.maxActivePairs = 1
	}
	m.spawnTargetMS = math.Max(m.baseIntervalMS, 1)
	return m
}

// StartRun clears every pair, zeroes the stats and re-arms the cadence.
func (m *PortalManager) StartRun() {
	m.pairs = nil
	m.spawnTimerMS = 0
	m.spawnTargetMS = m.rollSpawnTarget()
	m.stats = PortalManagerStats{}
	m.running = true
}

// StopRun freezes the manager in place. Pairs keep their phase for post-run
// rendering; Update becomes a no-op until the next StartRun.
func (m *PortalManager) StopRun() {
	m.running = false
}

// Update advances every pair, sweeps out the ones that finished collapsing,
// and then runs the spawn cadence. A nil occupancy predicate means an empty
// board. Non-positive, NaN or infinite deltas change nothing.
func (m *PortalManager) Update(deltaMS float64, occupied OccupancyFunc) PortalUpdate {
	var update PortalUpdate
	if m == nil || !m.running || !(deltaMS > 0) || math.IsInf(deltaMS, 0) {
		return update
	}

	for _, pair := range m.pairs {
		update.Transitions = append(update.Transitions, pair.advance(deltaMS)...)
	}

	survivors := m.pairs[:0]
	for _, pair := range m.pairs {
		if pair.Phase == PortalPhaseCollapsed {
			update.Despawned = append(update.Despawned, pair.ID)
			continue
		}
		survivors = append(survivors, pair)
	}
	m.pairs = survivors

	m.spawnTimerMS += deltaMS
	for m.spawnTimerMS >= m.spawnTargetMS {
		m.spawnTimerMS -= m.spawnTargetMS
		if spawn, ok := m.trySpawnPair(occupied); ok {
			update.Spawned = append(update.Spawned, spawn)
		}
		m.spawnTargetMS = m.rollSpawnTarget()
	}

	return update
}

// CollapseAll forces every live pair into its wind-down. Pairs already
// collapsing or collapsed are untouched; none jump straight to collapsed.
func (m *PortalManager) CollapseAll() []PortalTransition {
	if m == nil {
		return nil
	}
	var transitions []PortalTransition
	for _, pair := range m.pairs {
		if transition, ok := pair.beginCollapse(); ok {
			transitions = append(transitions, transition)
		}
	}
	return transitions
}

// Stats returns the spawn counters accumulated since the last StartRun.
func (m *PortalManager) Stats() PortalManagerStats {
	if m == nil {
		return PortalManagerStats{}
	}
	return m.stats
}

// rollSpawnTarget draws the next cadence target: base plus uniform jitter in
// [-jitter, +jitter], clamped to at least one millisecond so the cadence
// loop always terminates.
func (m *PortalManager) rollSpawnTarget() float64 {
	target := m.baseIntervalMS
	if m.jitterMS > 0 && m.cadence != nil {
		target += (m.cadence.Float64()*2 - 1) * m.jitterMS
	}
	if target < 1 {
		target = 1
	}
	return target
}

// trySpawnPair places one pair on two distinct free cells. Capacity, a short
// board or an unsatisfiable separation all skip the cycle silently.
func (m *PortalManager) trySpawnPair(occupied OccupancyFunc) (PortalSpawn, bool) {
	if len(m.pairs) >= m.maxActivePairs {
		m.stats.SkippedCapacity++
		return PortalSpawn{}, false
	}
	free := freeCells(m.cols, m.rows, func(pos GridPos) bool {
		if occupied != nil && occupied(pos) {
			return true
		}
		return m.occupiesEndpoint(pos)
	})
	if len(free) < 2 {
		m.stats.SkippedNoRoom++
		return PortalSpawn{}, false
	}
	posA, posB, ok := m.drawEndpointCells(free)
	if !ok {
		m.stats.SkippedSeparation++
		return PortalSpawn{}, false
	}

	m.nextPairSeq++
	pairID := fmt.Sprintf("portal-%d", m.nextPairSeq)
	pair, err := newPortalPair(pairID,
		PortalEndpoint{ID: pairID + "-a", Position: posA},
		PortalEndpoint{ID: pairID + "-b", Position: posB},
		m.durations,
	)
	if err != nil {
		return PortalSpawn{}, false
	}
	m.pairs = append(m.pairs, pair)
	m.stats.Spawned++
	return PortalSpawn{PairID: pairID, A: pair.A, B: pair.B}, true
}

// drawEndpointCells picks two distinct candidates by index. The second draw
// runs over n-1 slots and shifts past the first so the endpoints can never
// coincide. Separation retries are bounded; failure skips the spawn.
func (m *PortalManager) drawEndpointCells(free []GridPos) (GridPos, GridPos, bool) {
	for attempt := 0; attempt < placementAttemptLimit; attempt++ {
		first := randomIndex(len(free), m.placement)
		second := randomIndex(len(free)-1, m.placement)
		if second >= first {
			second++
		}
		posA, posB := free[first], free[second]
		if m.minSeparation > 0 && posA.ManhattanDistance(posB) < m.minSeparation {
			continue
		}
		return posA, posB, true
	}
	return GridPos{}, GridPos{}, false
}

// occupiesEndpoint reports whether any live pair has an endpoint on pos.
func (m *PortalManager) occupiesEndpoint(pos GridPos) bool {
	for _, pair := range m.pairs {
		if pair.occupies(pos) {
			return true
		}
	}
	return false
}

// pairAt returns the live pair with an endpoint on pos, if any.
func (m *PortalManager) pairAt(pos GridPos) (*portalState, bool) {
	if m == nil {
		return nil, false
	}
	for _, pair := range m.pairs {
		if pair.occupies(pos) {
			return pair, true
		}
	}
	return nil, false
}

// pairByID returns the live pair with the given id, if any.
func (m *PortalManager) pairByID(id string) (*portalState, bool) {
	if m == nil {
		return nil, false
	}
	for _, pair := range m.pairs {
		if pair.ID == id {
			return pair, true
		}
	}
	return nil, false
}

// portals clones every live pair into its broadcast form.
func (m *PortalManager) portals() []Portal {
	if m == nil || len(m.pairs) == 0 {
		return nil
	}
	views := make([]Portal, 0, len(m.pairs))
	for _, pair := range m.pairs {
		views = append(views, pair.view())
	}
	return views
}
