package server

import "fmt"

// HazardType labels the render skin of a static hazard.
type HazardType string

const (
	HazardRock     HazardType = "rock"
	HazardRiftScar HazardType = "rift-scar"
)

// Hazard is one deadly cell seeded for the run. Contact kills regardless of
// any grace window; only self-collision is ever forgiven.
type Hazard struct {
	ID       string     `json:"id"`
	Type     HazardType `json:"type"`
	Position GridPos    `json:"position"`
}

func (w *World) hazardAt(pos GridPos) bool {
	for _, h := range w.hazards {
		if h.Position.Equals(pos) {
			return true
		}
	}
	return false
}

// seedHazards scatters the configured number of hazards on free cells,
// keeping a clear margin around every live head so fresh spawns survive
// their first steps. Attempts are bounded; a crowded board seeds fewer.
func (w *World) seedHazards() {
	w.hazards = nil
	count := w.cfg.HazardCount
	if count <= 0 {
		return
	}
	blocked := w.placementBlocked()
	maxAttempts := count * 20
	for attempts := 0; len(w.hazards) < count && attempts < maxAttempts; attempts++ {
		pos, ok := randomFreeCell(w.cfg.GridCols, w.cfg.GridRows, blocked, w.hazardRNG)
		if !ok {
			break
		}
		if w.hazardAt(pos) || w.nearLiveHead(pos, hazardSpawnSafeRadius) {
			continue
		}
		w.nextHazardSeq++
		hazard := Hazard{
			ID:       fmt.Sprintf("hazard-%d", w.nextHazardSeq),
			Type:     hazardTypeFor(w.hazardRNG),
			Position: pos,
		}
		w.hazards = append(w.hazards, hazard)
		w.journal.Append(Patch{
			Kind:     PatchHazardSeeded,
			Tick:     w.tick,
			EntityID: hazard.ID,
			Payload:  HazardSeededPayload{Type: hazard.Type, Position: hazard.Position},
		})
	}
}

func (w *World) nearLiveHead(pos GridPos, radius int) bool {
	for _, id := range w.order {
		s := w.snakes[id]
		if !s.Alive || len(s.Segments) == 0 {
			continue
		}
		if s.headPos().ManhattanDistance(pos) <= radius {
			return true
		}
	}
	return false
}

func hazardTypeFor(rng RandomSource) HazardType {
	if randomIndex(2, rng) == 0 {
		return HazardRock
	}
	return HazardRiftScar
}
