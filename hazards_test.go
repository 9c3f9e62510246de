package server

import "testing"

func TestSeedHazardsFillsTinyBoard(t *testing.T) {
	t.Parallel()

	cfg := quietWorldConfig()
	cfg.GridCols = 2
	cfg.GridRows = 2
	cfg.HazardCount = 4
	w := NewWorld(cfg, nil)

	w.seedHazards()
	if len(w.hazards) != 4 {
		t.Fatalf("seeded %d hazards, want 4", len(w.hazards))
	}
	seen := NewCellSet()
	for _, h := range w.hazards {
		if !inBounds(h.Position, 2, 2) {
			t.Fatalf("hazard %s out of bounds at %+v", h.ID, h.Position)
		}
		if seen.Contains(h.Position) {
			t.Fatalf("hazard %s stacked on an occupied cell %+v", h.ID, h.Position)
		}
		seen.Add(h.Position)
	}
}

func TestSeedHazardsKeepsClearOfChainsAndHeads(t *testing.T) {
	t.Parallel()

	cfg := quietWorldConfig()
	cfg.GridCols = 20
	cfg.GridRows = 16
	cfg.HazardCount = 3
	w := NewWorld(cfg, nil)
	s := placeSnake(w, "s1", GridPos{Col: 10, Row: 8}, FacingRight, 3)
	w.foods = []Food{{ID: "food-1", Position: GridPos{Col: 2, Row: 2}}}

	w.seedHazards()
	if len(w.hazards) != 3 {
		t.Fatalf("seeded %d hazards, want 3", len(w.hazards))
	}
	head := s.headPos()
	for _, h := range w.hazards {
		for _, seg := range s.Segments {
			if h.Position.Equals(seg) {
				t.Fatalf("hazard %s landed on the chain at %+v", h.ID, h.Position)
			}
		}
		if h.Position.Equals(w.foods[0].Position) {
			t.Fatalf("hazard %s landed on a pellet at %+v", h.ID, h.Position)
		}
		if head.ManhattanDistance(h.Position) <= hazardSpawnSafeRadius {
			t.Fatalf("hazard %s inside the spawn margin at %+v", h.ID, h.Position)
		}
	}
}

func TestSeedHazardsHonorsZeroCount(t *testing.T) {
	t.Parallel()

	cfg := quietWorldConfig()
	cfg.HazardCount = 0
	w := NewWorld(cfg, nil)

	w.seedHazards()
	if len(w.hazards) != 0 {
		t.Fatalf("zero count still seeded %d hazards", len(w.hazards))
	}
	for _, p := range w.DrainPatches() {
		if p.Kind == PatchHazardSeeded {
			t.Fatalf("unexpected seed patch: %+v", p)
		}
	}
}

func TestHazardTypeSplitsOnDraw(t *testing.T) {
	t.Parallel()

	if got := hazardTypeFor(&scriptedRandom{values: []float64{0}}); got != HazardRock {
		t.Fatalf("low draw gave %q", got)
	}
	if got := hazardTypeFor(&scriptedRandom{values: []float64{0.9}}); got != HazardRiftScar {
		t.Fatalf("high draw gave %q", got)
	}
}

func TestHazardKillsThroughGraceWindow(t *testing.T) {
	t.Parallel()

	w := NewWorld(quietWorldConfig(), nil)
	s := placeSnake(w, "s1", GridPos{Col: 5, Row: 5}, FacingRight, 3)
	w.hazards = []Hazard{{ID: "hazard-1", Type: HazardRock, Position: GridPos{Col: 6, Row: 5}}}
	s.immunityMS = 400
	w.DrainPatches()

	stepWorld(w, 100)

	if s.Alive {
		t.Fatal("grace window spared a hazard hit")
	}
	var died *SnakeDiedPayload
	for _, p := range w.DrainPatches() {
		if p.Kind == PatchSnakeDied {
			payload := p.Payload.(SnakeDiedPayload)
			died = &payload
		}
	}
	if died == nil || died.Cause != DeathCauseHazard {
		t.Fatalf("expected a hazard death patch, got %+v", died)
	}
}

func TestHazardSeedPatchesCarryPositions(t *testing.T) {
	t.Parallel()

	cfg := quietWorldConfig()
	cfg.GridCols = 8
	cfg.GridRows = 8
	cfg.HazardCount = 2
	w := NewWorld(cfg, nil)

	w.seedHazards()
	var seeded int
	for _, p := range w.DrainPatches() {
		if p.Kind != PatchHazardSeeded {
			continue
		}
		seeded++
		payload, ok := p.Payload.(HazardSeededPayload)
		if !ok {
			t.Fatalf("seed patch carried %T", p.Payload)
		}
		if !w.hazardAt(payload.Position) {
			t.Fatalf("patch position %+v not present on the field", payload.Position)
		}
		if payload.Type != HazardRock && payload.Type != HazardRiftScar {
			t.Fatalf("unknown hazard type %q", payload.Type)
		}
	}
	if seeded != len(w.hazards) {
		t.Fatalf("%d seed patches for %d hazards", seeded, len(w.hazards))
	}
}
