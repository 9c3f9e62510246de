package server

import (
	"testing"
	"time"
)

// quietWorldConfig returns a tuning where nothing fires on its own. Portals,
// biome shifts, food, and hazards stay out of the way unless a test turns
// them on.
func quietWorldConfig() WorldConfig {
	return WorldConfig{
		GridCols:             12,
		GridRows:             10,
		Seed:                 "test-world",
		SnakeStepIntervalMS:  100,
		SnakeStartLength:     3,
		FoodCount:            0,
		HazardCount:          0,
		PortalBaseIntervalMS: 1e9,
		PortalMaxActivePairs: 1,
		PortalSpawningMS:     200,
		PortalActiveMS:       10000,
		PortalCollapsingMS:   300,
		BiomeShiftIntervalMS: 1e9,
	}
}

// placeSnake drops a chain at an exact spot, bypassing spawn placement, so
// collision tests control the geometry.
func placeSnake(w *World, id string, head GridPos, facing FacingDirection, length int) *snakeState {
	s := newSnakeState(id, head, facing, length)
	w.snakes[id] = s
	w.order = append(w.order, id)
	w.runActive = true
	return s
}

// stepWorld advances one tick carrying the given commands. dtMS is simulated
// time, so tests step exactly as far as they mean to.
func stepWorld(w *World, dtMS float64, commands ...Command) {
	w.Step(time.Now(), dtMS/1000, commands)
}

// turnCommand stages a facing change for the named snake.
func turnCommand(id string, facing FacingDirection) Command {
	return Command{
		ActorID:  id,
		Type:     CommandTurn,
		IssuedAt: time.Now(),
		Turn:     &TurnCommand{Facing: facing},
	}
}

// injectWorldPair plants a linked pair directly on the world's manager in
// the given phase, sidestepping the spawn cadence.
func injectWorldPair(t *testing.T, w *World, id string, a, b GridPos, phase PortalPhase) *portalState {
	t.Helper()
	pair, err := newPortalPair(id,
		PortalEndpoint{ID: id + "-a", Position: a},
		PortalEndpoint{ID: id + "-b", Position: b},
		w.cfg.portalDurations(),
	)
	if err != nil {
		t.Fatalf("newPortalPair: %v", err)
	}
	pair.Phase = phase
	w.portals.pairs = append(w.portals.pairs, pair)
	return pair
}
