package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 15 // ticks per second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	tickBudgetAlarmStreak = 5 // consecutive overruns before the alarm event

	defaultGridCols = 32
	defaultGridRows = 24

	defaultSnakeLength    = 3
	defaultStepIntervalMS = 120.0
	facingQueueLimit      = 2

	defaultFoodCount = 3
	foodScoreValue   = 10

	defaultHazardCount    = 2
	hazardSpawnSafeRadius = 4

	defaultPortalBaseIntervalMS = 30000.0
	defaultPortalJitterMS       = 5000.0
	defaultMaxActivePairs       = 1
	defaultPortalSpawningMS     = 500.0
	defaultPortalActiveMS       = 8000.0
	defaultPortalCollapsingMS   = 500.0
	defaultPortalMinSeparation  = 0
	placementAttemptLimit       = 16

	immunityWindowMS = 500.0

	defaultBiomeShiftIntervalMS = 45000.0
	defaultBiomeShiftJitterMS   = 10000.0
)

const (
	defaultWorldSeed = "driftgate"

	defaultKeyframeInterval    = 30 // ticks between journal keyframes
	defaultKeyframeLimit       = 32
	defaultKeyframeMaxAgeTicks = 900

	keyframeBurstThreshold = 24 // pending patches in one tick forcing an early keyframe
	keyframeReasonLimit    = 8

	envKeyframeInterval = "WARP_KEYFRAME_INTERVAL"
	envKeyframeLimit    = "WARP_KEYFRAME_LIMIT"
	envKeyframeMaxAge   = "WARP_KEYFRAME_MAX_AGE_TICKS"
)

// TickRate exposes the fixed simulation rate for diagnostics.
func TickRate() int {
	return tickRate
}

// HeartbeatInterval exposes the expected client heartbeat cadence.
func HeartbeatInterval() time.Duration {
	return heartbeatInterval
}
