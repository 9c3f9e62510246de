package server

import "sync/atomic"

// telemetryCounters tracks world activity for the diagnostics endpoint.
// Counters are atomic so HTTP reads never contend with the tick loop.
type telemetryCounters struct {
	portalSpawns     atomic.Uint64
	portalSpawnSkips atomic.Uint64
	portalDespawns   atomic.Uint64
	forcedCollapses  atomic.Uint64

	traversalsStarted   atomic.Uint64
	segmentsThreaded    atomic.Uint64
	traversalsCompleted atomic.Uint64
	transitsForced      atomic.Uint64
	segmentsForceMoved  atomic.Uint64
	immunityGrants      atomic.Uint64

	snakeDeaths     atomic.Uint64
	foodEaten       atomic.Uint64
	runsStarted     atomic.Uint64
	broadcasts      atomic.Uint64
	keyframesForced atomic.Uint64
}

// TelemetrySnapshot is the serializable view of the counters.
type TelemetrySnapshot struct {
	PortalSpawns        uint64 `json:"portalSpawns"`
	PortalSpawnSkips    uint64 `json:"portalSpawnSkips"`
	PortalDespawns      uint64 `json:"portalDespawns"`
	ForcedCollapses     uint64 `json:"forcedCollapses"`
	TraversalsStarted   uint64 `json:"traversalsStarted"`
	SegmentsThreaded    uint64 `json:"segmentsThreaded"`
	TraversalsCompleted uint64 `json:"traversalsCompleted"`
	TransitsForced      uint64 `json:"transitsForced"`
	SegmentsForceMoved  uint64 `json:"segmentsForceMoved"`
	ImmunityGrants      uint64 `json:"immunityGrants"`
	SnakeDeaths         uint64 `json:"snakeDeaths"`
	FoodEaten           uint64 `json:"foodEaten"`
	RunsStarted         uint64 `json:"runsStarted"`
	Broadcasts          uint64 `json:"broadcasts"`
	KeyframesForced     uint64 `json:"keyframesForced"`
}

// Snapshot copies the counters into their serializable form.
func (t *telemetryCounters) Snapshot() TelemetrySnapshot {
	if t == nil {
		return TelemetrySnapshot{}
	}
	return TelemetrySnapshot{
		PortalSpawns:        t.portalSpawns.Load(),
		PortalSpawnSkips:    t.portalSpawnSkips.Load(),
		PortalDespawns:      t.portalDespawns.Load(),
		ForcedCollapses:     t.forcedCollapses.Load(),
		TraversalsStarted:   t.traversalsStarted.Load(),
		SegmentsThreaded:    t.segmentsThreaded.Load(),
		TraversalsCompleted: t.traversalsCompleted.Load(),
		TransitsForced:      t.transitsForced.Load(),
		SegmentsForceMoved:  t.segmentsForceMoved.Load(),
		ImmunityGrants:      t.immunityGrants.Load(),
		SnakeDeaths:         t.snakeDeaths.Load(),
		FoodEaten:           t.foodEaten.Load(),
		RunsStarted:         t.runsStarted.Load(),
		Broadcasts:          t.broadcasts.Load(),
		KeyframesForced:     t.keyframesForced.Load(),
	}
}
