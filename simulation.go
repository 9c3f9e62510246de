package server

import (
	"context"
	"time"

	logginglifecycle "warp-and-wind/server/logging/lifecycle"
	loggingportals "warp-and-wind/server/logging/portals"
	loggingtraversal "warp-and-wind/server/logging/traversal"
)

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandTurn    CommandType = "Turn"
	CommandRestart CommandType = "Restart"
)

// Command represents an intent captured for processing on the next tick.
type Command struct {
	ActorID  string
	Type     CommandType
	IssuedAt time.Time
	Turn     *TurnCommand
}

// TurnCommand carries the desired facing for an upcoming chain step.
type TurnCommand struct {
	Facing FacingDirection
}

// Step advances the simulation by a single tick applying all staged commands.
func (w *World) Step(now time.Time, dt float64, commands []Command) {
	if dt <= 0 {
		dt = 1.0 / float64(tickRate)
	}
	w.tick++
	dtMS := dt * 1000

	// A restart supersedes everything else staged for the tick.
	for _, cmd := range commands {
		if cmd.Type == CommandRestart {
			w.StartRun()
			w.maybeKeyframe()
			return
		}
	}
	if !w.runActive {
		w.maybeKeyframe()
		return
	}

	w.tickImmunity(dtMS)

	// Staged turns.
	for _, cmd := range commands {
		if cmd.Type != CommandTurn || cmd.Turn == nil {
			continue
		}
		if s, ok := w.snakes[cmd.ActorID]; ok && s.Alive {
			s.queueFacing(cmd.Turn.Facing)
		}
	}

	// Chain movement, each snake on its own cadence.
	for _, id := range w.order {
		s := w.snakes[id]
		if !s.Alive {
			continue
		}
		s.stepAccumMS += dtMS
		for s.Alive && s.stepAccumMS >= w.cfg.SnakeStepIntervalMS {
			s.stepAccumMS -= w.cfg.SnakeStepIntervalMS
			w.stepSnakeOnce(s)
		}
	}

	// Portal lifecycle and spawning.
	before := w.portals.Stats()
	batch := w.portals.Update(dtMS, w.occupiedCells().Blocked)
	w.applyPortalUpdate(batch, before)

	// Biome rotation destabilizes every open pair.
	for _, biome := range w.biome.advance(dtMS) {
		w.applyBiomeShift(biome)
	}

	// One sweep catches every transit whose pair stopped being crossable this
	// tick, whether it aged out or a shift collapsed it.
	w.sweepBrokenTransits()

	if w.runActive && !w.anySnakeAlive() {
		w.StopRun("all snakes dead")
	}

	w.maybeKeyframe()
}

// tickImmunity burns down each grace window. Windows granted later in the
// same tick keep their full span until the next.
func (w *World) tickImmunity(dtMS float64) {
	for _, id := range w.order {
		s := w.snakes[id]
		if s.immunityMS <= 0 {
			continue
		}
		s.immunityMS -= dtMS
		if s.immunityMS <= 0 {
			s.immunityMS = 0
			w.journal.Append(Patch{
				Kind:     PatchImmunityExpired,
				Tick:     w.tick,
				EntityID: s.ID,
			})
			loggingtraversal.ImmunityExpired(context.Background(), w.publisher, w.tick, snakeRef(s.ID), nil)
		}
	}
}

// stepSnakeOnce advances one chain a single cell, resolving warps, pellets,
// and collisions in that order.
func (w *World) stepSnakeOnce(s *snakeState) {
	facing := s.nextFacing()
	next := s.headPos().Stepped(facing)

	if !inBounds(next, w.cfg.GridCols, w.cfg.GridRows) {
		w.killSnake(s, DeathCauseWall)
		return
	}
	// Hazards kill through any grace window; immunity only forgives the
	// snake's own body.
	if w.hazardAt(next) {
		w.killSnake(s, DeathCauseHazard)
		return
	}

	final, transit, entered := resolvePortalEntry(w.portals, next, len(s.Segments), s.transit)

	_, growing := w.foodAt(final)

	if s.blocksOwnHead(final, growing) && s.immunityMS <= 0 {
		w.killSnake(s, DeathCauseSelf)
		return
	}
	for _, otherID := range w.order {
		other := w.snakes[otherID]
		if other == s || !other.Alive {
			continue
		}
		if other.occupies(final) {
			w.killSnake(s, DeathCauseSnake)
			return
		}
	}

	s.Facing = facing
	s.advanceChain(final, growing)
	w.journal.Append(Patch{
		Kind:     PatchSnakeMoved,
		Tick:     w.tick,
		EntityID: s.ID,
		Payload:  SnakeMovedPayload{Head: final, Facing: facing, Grew: growing},
	})

	if entered {
		w.telemetry.traversalsStarted.Add(1)
		if transit != nil {
			s.transit = transit
			w.journal.Append(Patch{
				Kind:     PatchTransitOpened,
				Tick:     w.tick,
				EntityID: s.ID,
				Payload: TransitPayload{
					SnakeID:           s.ID,
					PairID:            transit.PairID,
					EntryPos:          transit.EntryPos,
					ExitPos:           transit.ExitPos,
					SegmentsRemaining: transit.SegmentsRemaining,
				},
			})
			loggingtraversal.TransitOpened(
				context.Background(),
				w.publisher,
				w.tick,
				snakeRef(s.ID),
				loggingtraversal.TransitOpenedPayload{
					PairID:            transit.PairID,
					EntryCol:          transit.EntryPos.Col,
					EntryRow:          transit.EntryPos.Row,
					ExitCol:           transit.ExitPos.Col,
					ExitRow:           transit.ExitPos.Row,
					SegmentsRemaining: transit.SegmentsRemaining,
				},
				nil,
			)
		} else {
			// Single-segment chains cross whole.
			w.telemetry.traversalsCompleted.Add(1)
		}
	}

	if growing && s.transit != nil {
		// The kept tail adds one more segment that must thread through.
		s.transit.SegmentsRemaining++
	}

	if !entered && s.transit != nil {
		w.threadTransitStep(s)
	}

	if growing {
		w.consumePellet(s, final)
	}
}

// threadTransitStep applies one chain shift against an open transit and
// journals the progress.
func (w *World) threadTransitStep(s *snakeState) {
	pairID := s.transit.PairID
	entry := s.transit.EntryPos
	exit := s.transit.ExitPos
	if !threadTransit(s) {
		return
	}
	w.telemetry.segmentsThreaded.Add(1)
	if s.transit == nil {
		w.journal.Append(Patch{
			Kind:     PatchTransitCompleted,
			Tick:     w.tick,
			EntityID: s.ID,
			Payload:  TransitPayload{SnakeID: s.ID, PairID: pairID, EntryPos: entry, ExitPos: exit},
		})
		loggingtraversal.TransitCompleted(
			context.Background(),
			w.publisher,
			w.tick,
			snakeRef(s.ID),
			loggingtraversal.SegmentThreadedPayload{PairID: pairID},
			nil,
		)
		w.telemetry.traversalsCompleted.Add(1)
		return
	}
	w.journal.Append(Patch{
		Kind:     PatchTransitThreaded,
		Tick:     w.tick,
		EntityID: s.ID,
		Payload: TransitPayload{
			SnakeID:           s.ID,
			PairID:            pairID,
			EntryPos:          entry,
			ExitPos:           exit,
			SegmentsRemaining: s.transit.SegmentsRemaining,
		},
	})
	loggingtraversal.SegmentThreaded(
		context.Background(),
		w.publisher,
		w.tick,
		snakeRef(s.ID),
		loggingtraversal.SegmentThreadedPayload{PairID: pairID, SegmentsRemaining: s.transit.SegmentsRemaining},
		nil,
	)
}

// consumePellet converts the pellet under the head into score and spawns a
// replacement.
func (w *World) consumePellet(s *snakeState, pos GridPos) {
	food, ok := w.consumeFoodAt(pos)
	if !ok {
		return
	}
	s.Score += foodScoreValue
	w.journal.Append(Patch{
		Kind:     PatchFoodEaten,
		Tick:     w.tick,
		EntityID: food.ID,
		Payload:  FoodEatenPayload{SnakeID: s.ID, Position: food.Position},
	})
	w.journal.Append(Patch{
		Kind:     PatchSnakeGrew,
		Tick:     w.tick,
		EntityID: s.ID,
		Payload:  SnakeGrewPayload{Length: len(s.Segments), Score: s.Score},
	})
	w.telemetry.foodEaten.Add(1)
	w.spawnFood()
}

// killSnake marks a chain dead in place. Dead chains stop moving and stop
// blocking the field.
func (w *World) killSnake(s *snakeState, cause DeathCause) {
	if !s.Alive {
		return
	}
	s.Alive = false
	s.pendingFacings = nil
	s.immunityMS = 0
	s.transit = nil
	w.journal.Append(Patch{
		Kind:     PatchSnakeDied,
		Tick:     w.tick,
		EntityID: s.ID,
		Payload:  SnakeDiedPayload{Cause: cause},
	})
	logginglifecycle.SnakeDied(
		context.Background(),
		w.publisher,
		w.tick,
		snakeRef(s.ID),
		logginglifecycle.SnakeDiedPayload{Cause: string(cause), Length: len(s.Segments), Score: s.Score},
		nil,
	)
	w.telemetry.snakeDeaths.Add(1)
}

// applyPortalUpdate journals a manager batch in its own order and surfaces
// any spawn skips recorded since before.
func (w *World) applyPortalUpdate(batch PortalUpdate, before PortalManagerStats) {
	for _, t := range batch.Transitions {
		w.journalPortalTransition(t)
	}
	for _, id := range batch.Despawned {
		w.journal.Append(Patch{Kind: PatchPortalDespawned, Tick: w.tick, EntityID: id})
		loggingportals.PairDespawned(context.Background(), w.publisher, w.tick, pairRef(id), nil)
		w.telemetry.portalDespawns.Add(1)
	}
	for _, sp := range batch.Spawned {
		w.journal.Append(Patch{
			Kind:     PatchPortalSpawned,
			Tick:     w.tick,
			EntityID: sp.PairID,
			Payload:  PortalSpawnedPayload{A: sp.A, B: sp.B},
		})
		loggingportals.PairSpawned(
			context.Background(),
			w.publisher,
			w.tick,
			pairRef(sp.PairID),
			loggingportals.PairSpawnedPayload{
				ACol: sp.A.Position.Col,
				ARow: sp.A.Position.Row,
				BCol: sp.B.Position.Col,
				BRow: sp.B.Position.Row,
			},
			nil,
		)
		w.telemetry.portalSpawns.Add(1)
	}
	w.reportSpawnSkips(before, w.portals.Stats())
}

func (w *World) journalPortalTransition(t PortalTransition) {
	w.journal.Append(Patch{
		Kind:     PatchPortalPhase,
		Tick:     w.tick,
		EntityID: t.PairID,
		Payload:  PortalPhasePayload{From: t.From, To: t.To, ElapsedMS: t.ElapsedMS},
	})
	loggingportals.PhaseChanged(
		context.Background(),
		w.publisher,
		w.tick,
		pairRef(t.PairID),
		loggingportals.PhaseChangedPayload{From: string(t.From), To: string(t.To), ElapsedMS: t.ElapsedMS},
		nil,
	)
}

func (w *World) reportSpawnSkips(before, after PortalManagerStats) {
	skips := []struct {
		count  int
		reason string
	}{
		{after.SkippedCapacity - before.SkippedCapacity, "capacity"},
		{after.SkippedNoRoom - before.SkippedNoRoom, "no_room"},
		{after.SkippedSeparation - before.SkippedSeparation, "separation"},
	}
	for _, skip := range skips {
		for i := 0; i < skip.count; i++ {
			loggingportals.SpawnSkipped(
				context.Background(),
				w.publisher,
				w.tick,
				worldRef(),
				loggingportals.SpawnSkippedPayload{Reason: skip.reason},
				nil,
			)
			w.telemetry.portalSpawnSkips.Add(1)
		}
	}
}

// applyBiomeShift journals the rotation and collapses every open pair early.
func (w *World) applyBiomeShift(biome Biome) {
	w.journal.Append(Patch{
		Kind:    PatchBiomeShifted,
		Tick:    w.tick,
		Payload: BiomeShiftedPayload{Biome: biome},
	})
	logginglifecycle.BiomeShifted(
		context.Background(),
		w.publisher,
		w.tick,
		biomeRef(),
		logginglifecycle.BiomeShiftedPayload{Biome: string(biome)},
		nil,
	)
	transitions := w.portals.CollapseAll()
	if len(transitions) == 0 {
		return
	}
	for _, t := range transitions {
		w.journalPortalTransition(t)
	}
	loggingportals.CollapseForced(
		context.Background(),
		w.publisher,
		w.tick,
		worldRef(),
		loggingportals.CollapseForcedPayload{Reason: "biome_shift", Pairs: len(transitions)},
		nil,
	)
	w.telemetry.forcedCollapses.Add(uint64(len(transitions)))
}

// sweepBrokenTransits force-completes any transit whose pair can no longer
// be crossed and grants the snake its grace window.
func (w *World) sweepBrokenTransits() {
	for _, id := range w.order {
		s := w.snakes[id]
		if !s.Alive || s.transit == nil || !transitBroken(w.portals, s.transit) {
			continue
		}
		pairID := s.transit.PairID
		exitPos := s.transit.ExitPos
		moved := forceCompleteTransit(s)
		w.journal.Append(Patch{
			Kind:     PatchTransitForced,
			Tick:     w.tick,
			EntityID: s.ID,
			Payload:  TransitForcedPayload{SnakeID: s.ID, PairID: pairID, ExitPos: exitPos, SegmentsMoved: moved},
		})
		loggingtraversal.TransitForced(
			context.Background(),
			w.publisher,
			w.tick,
			snakeRef(s.ID),
			loggingtraversal.TransitForcedPayload{PairID: pairID, SegmentsMoved: moved},
			nil,
		)
		w.telemetry.transitsForced.Add(1)
		w.telemetry.segmentsForceMoved.Add(uint64(moved))

		s.immunityMS = immunityWindowMS
		w.journal.Append(Patch{
			Kind:     PatchImmunityGranted,
			Tick:     w.tick,
			EntityID: s.ID,
			Payload:  ImmunityPayload{RemainingMS: s.immunityMS},
		})
		loggingtraversal.ImmunityGranted(
			context.Background(),
			w.publisher,
			w.tick,
			snakeRef(s.ID),
			loggingtraversal.ImmunityPayload{RemainingMS: s.immunityMS},
			nil,
		)
		w.telemetry.immunityGrants.Add(1)
	}
}

func (w *World) anySnakeAlive() bool {
	for _, id := range w.order {
		if w.snakes[id].Alive {
			return true
		}
	}
	return false
}
