package server

import "fmt"

// ApplyPatches replays a patch batch onto a snapshot and returns a new copy
// reflecting every change in order. Clients that miss a broadcast rebuild
// from their last keyframe this way, and the determinism harness leans on it
// to prove the stream carries the whole simulation. Time-decayed cosmetics
// (phase progress, the grace countdown) only advance when a patch says so.
func ApplyPatches(base WorldSnapshot, patches []Patch) (WorldSnapshot, error) {
	next := cloneSnapshot(base)
	for _, patch := range patches {
		if err := applyPatch(&next, patch); err != nil {
			return WorldSnapshot{}, err
		}
		if patch.Tick > next.Tick {
			next.Tick = patch.Tick
		}
	}
	return next, nil
}

// cloneSnapshot deep-copies the snapshot so replay never shares slice memory
// with the base.
func cloneSnapshot(base WorldSnapshot) WorldSnapshot {
	next := base
	next.Snakes = make([]SnakeView, len(base.Snakes))
	for i, view := range base.Snakes {
		cloned := view
		cloned.Segments = append([]GridPos(nil), view.Segments...)
		next.Snakes[i] = cloned
	}
	next.Foods = append([]Food(nil), base.Foods...)
	next.Hazards = append([]Hazard(nil), base.Hazards...)
	next.Portals = append([]Portal(nil), base.Portals...)
	return next
}

func applyPatch(next *WorldSnapshot, patch Patch) error {
	switch patch.Kind {
	case PatchRunStarted:
		payload, ok := payloadAsRun(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		next.Run = payload.Run
		next.Running = true
		next.Biome = biomeOrder[0]
		next.Foods = nil
		next.Hazards = nil
		next.Portals = nil
	case PatchRunEnded:
		next.Running = false
	case PatchSnakeSpawned:
		payload, ok := payloadAsSnakeSpawned(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		view := SnakeView{
			Snake: Snake{
				ID:       patch.EntityID,
				Segments: append([]GridPos(nil), payload.Segments...),
				Facing:   payload.Facing,
				Alive:    true,
			},
			Split: PortalSplit{Progress: 1},
		}
		if existing, ok := findSnake(next, patch.EntityID); ok {
			*existing = view
		} else {
			next.Snakes = append(next.Snakes, view)
		}
	case PatchSnakeMoved:
		payload, ok := payloadAsSnakeMoved(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		view, ok := findSnake(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		view.Facing = payload.Facing
		view.Segments = append([]GridPos{payload.Head}, view.Segments...)
		if !payload.Grew && len(view.Segments) > 1 {
			view.Segments = view.Segments[:len(view.Segments)-1]
		}
	case PatchSnakeGrew:
		payload, ok := payloadAsSnakeGrew(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		view, ok := findSnake(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		view.Score = payload.Score
	case PatchSnakeDied:
		view, ok := findSnake(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		view.Alive = false
		view.Split = PortalSplit{Progress: 1}
		view.ImmunityMS = 0
	case PatchSnakeLeft:
		if !removeSnakeView(next, patch.EntityID) {
			return unknownEntity(patch)
		}
	case PatchFoodSpawned:
		payload, ok := payloadAsFoodSpawned(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		next.Foods = append(next.Foods, Food{ID: patch.EntityID, Position: payload.Position})
	case PatchFoodEaten:
		if !removeFoodView(next, patch.EntityID) {
			return unknownEntity(patch)
		}
	case PatchHazardSeeded:
		payload, ok := payloadAsHazardSeeded(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		next.Hazards = append(next.Hazards, Hazard{
			ID:       patch.EntityID,
			Type:     payload.Type,
			Position: payload.Position,
		})
	case PatchPortalSpawned:
		payload, ok := payloadAsPortalSpawned(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		next.Portals = append(next.Portals, Portal{
			ID:    patch.EntityID,
			A:     payload.A,
			B:     payload.B,
			Phase: PortalPhaseSpawning,
		})
	case PatchPortalPhase:
		payload, ok := payloadAsPortalPhase(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		pair, ok := findPortalView(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		pair.Phase = payload.To
		pair.Progress = 0
	case PatchPortalDespawned:
		if !removePortalView(next, patch.EntityID) {
			return unknownEntity(patch)
		}
	case PatchTransitOpened, PatchTransitThreaded:
		payload, ok := payloadAsTransit(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		view, ok := findSnake(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		view.Split = splitForRemaining(payload.PairID, len(view.Segments), payload.SegmentsRemaining)
	case PatchTransitCompleted:
		view, ok := findSnake(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		view.Split = PortalSplit{Progress: 1}
	case PatchTransitForced:
		payload, ok := payloadAsTransitForced(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		view, ok := findSnake(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		for i := len(view.Segments) - payload.SegmentsMoved; i < len(view.Segments); i++ {
			if i < 0 {
				continue
			}
			view.Segments[i] = payload.ExitPos
		}
		view.Split = PortalSplit{Progress: 1}
	case PatchImmunityGranted:
		payload, ok := payloadAsImmunity(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		view, ok := findSnake(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		view.ImmunityMS = payload.RemainingMS
	case PatchImmunityExpired:
		view, ok := findSnake(next, patch.EntityID)
		if !ok {
			return unknownEntity(patch)
		}
		view.ImmunityMS = 0
	case PatchBiomeShifted:
		payload, ok := payloadAsBiomeShifted(patch.Payload)
		if !ok {
			return badPayload(patch)
		}
		next.Biome = payload.Biome
	default:
		return fmt.Errorf("apply patches: unsupported patch kind %q", patch.Kind)
	}
	return nil
}

func badPayload(patch Patch) error {
	return fmt.Errorf("apply patches: unexpected payload %T for %q", patch.Payload, patch.Kind)
}

func unknownEntity(patch Patch) error {
	return fmt.Errorf("apply patches: unknown entity %q for kind %q", patch.EntityID, patch.Kind)
}

func findSnake(next *WorldSnapshot, id string) (*SnakeView, bool) {
	for i := range next.Snakes {
		if next.Snakes[i].ID == id {
			return &next.Snakes[i], true
		}
	}
	return nil, false
}

func removeSnakeView(next *WorldSnapshot, id string) bool {
	for i := range next.Snakes {
		if next.Snakes[i].ID == id {
			next.Snakes = append(next.Snakes[:i], next.Snakes[i+1:]...)
			return true
		}
	}
	return false
}

func removeFoodView(next *WorldSnapshot, id string) bool {
	for i := range next.Foods {
		if next.Foods[i].ID == id {
			next.Foods = append(next.Foods[:i], next.Foods[i+1:]...)
			// The live snapshot reports an emptied field as nil.
			if len(next.Foods) == 0 {
				next.Foods = nil
			}
			return true
		}
	}
	return false
}

func findPortalView(next *WorldSnapshot, pairID string) (*Portal, bool) {
	for i := range next.Portals {
		if next.Portals[i].ID == pairID {
			return &next.Portals[i], true
		}
	}
	return nil, false
}

func removePortalView(next *WorldSnapshot, pairID string) bool {
	for i := range next.Portals {
		if next.Portals[i].ID == pairID {
			next.Portals = append(next.Portals[:i], next.Portals[i+1:]...)
			if len(next.Portals) == 0 {
				next.Portals = nil
			}
			return true
		}
	}
	return false
}

func payloadAsRun(value any) (RunPayload, bool) {
	switch v := value.(type) {
	case RunPayload:
		return v, true
	case *RunPayload:
		if v == nil {
			return RunPayload{}, false
		}
		return *v, true
	default:
		return RunPayload{}, false
	}
}

func payloadAsSnakeSpawned(value any) (SnakeSpawnedPayload, bool) {
	switch v := value.(type) {
	case SnakeSpawnedPayload:
		return v, true
	case *SnakeSpawnedPayload:
		if v == nil {
			return SnakeSpawnedPayload{}, false
		}
		return *v, true
	default:
		return SnakeSpawnedPayload{}, false
	}
}

func payloadAsSnakeMoved(value any) (SnakeMovedPayload, bool) {
	switch v := value.(type) {
	case SnakeMovedPayload:
		return v, true
	case *SnakeMovedPayload:
		if v == nil {
			return SnakeMovedPayload{}, false
		}
		return *v, true
	default:
		return SnakeMovedPayload{}, false
	}
}

func payloadAsSnakeGrew(value any) (SnakeGrewPayload, bool) {
	switch v := value.(type) {
	case SnakeGrewPayload:
		return v, true
	case *SnakeGrewPayload:
		if v == nil {
			return SnakeGrewPayload{}, false
		}
		return *v, true
	default:
		return SnakeGrewPayload{}, false
	}
}

func payloadAsFoodSpawned(value any) (FoodSpawnedPayload, bool) {
	switch v := value.(type) {
	case FoodSpawnedPayload:
		return v, true
	case *FoodSpawnedPayload:
		if v == nil {
			return FoodSpawnedPayload{}, false
		}
		return *v, true
	default:
		return FoodSpawnedPayload{}, false
	}
}

func payloadAsHazardSeeded(value any) (HazardSeededPayload, bool) {
	switch v := value.(type) {
	case HazardSeededPayload:
		return v, true
	case *HazardSeededPayload:
		if v == nil {
			return HazardSeededPayload{}, false
		}
		return *v, true
	default:
		return HazardSeededPayload{}, false
	}
}

func payloadAsPortalSpawned(value any) (PortalSpawnedPayload, bool) {
	switch v := value.(type) {
	case PortalSpawnedPayload:
		return v, true
	case *PortalSpawnedPayload:
		if v == nil {
			return PortalSpawnedPayload{}, false
		}
		return *v, true
	default:
		return PortalSpawnedPayload{}, false
	}
}

func payloadAsPortalPhase(value any) (PortalPhasePayload, bool) {
	switch v := value.(type) {
	case PortalPhasePayload:
		return v, true
	case *PortalPhasePayload:
		if v == nil {
			return PortalPhasePayload{}, false
		}
		return *v, true
	default:
		return PortalPhasePayload{}, false
	}
}

func payloadAsTransit(value any) (TransitPayload, bool) {
	switch v := value.(type) {
	case TransitPayload:
		return v, true
	case *TransitPayload:
		if v == nil {
			return TransitPayload{}, false
		}
		return *v, true
	default:
		return TransitPayload{}, false
	}
}

func payloadAsTransitForced(value any) (TransitForcedPayload, bool) {
	switch v := value.(type) {
	case TransitForcedPayload:
		return v, true
	case *TransitForcedPayload:
		if v == nil {
			return TransitForcedPayload{}, false
		}
		return *v, true
	default:
		return TransitForcedPayload{}, false
	}
}

func payloadAsImmunity(value any) (ImmunityPayload, bool) {
	switch v := value.(type) {
	case ImmunityPayload:
		return v, true
	case *ImmunityPayload:
		if v == nil {
			return ImmunityPayload{}, false
		}
		return *v, true
	default:
		return ImmunityPayload{}, false
	}
}

func payloadAsBiomeShifted(value any) (BiomeShiftedPayload, bool) {
	switch v := value.(type) {
	case BiomeShiftedPayload:
		return v, true
	case *BiomeShiftedPayload:
		if v == nil {
			return BiomeShiftedPayload{}, false
		}
		return *v, true
	default:
		return BiomeShiftedPayload{}, false
	}
}
