package server

import (
	"math"
	"testing"

	"warp-and-wind/server/catalog"
)

func TestWorldConfigNormalizedFillsRequiredKnobs(t *testing.T) {
	t.Parallel()

	n := WorldConfig{}.normalized()

	if n.GridCols != defaultGridCols || n.GridRows != defaultGridRows {
		t.Fatalf("grid %dx%d, want defaults", n.GridCols, n.GridRows)
	}
	if n.Seed != defaultWorldSeed {
		t.Fatalf("seed %q, want default", n.Seed)
	}
	if n.SnakeStepIntervalMS != defaultStepIntervalMS {
		t.Fatalf("step interval %v, want default", n.SnakeStepIntervalMS)
	}
	if n.SnakeStartLength != defaultSnakeLength {
		t.Fatalf("start length %d, want default", n.SnakeStartLength)
	}
	if n.PortalMaxActivePairs != defaultMaxActivePairs {
		t.Fatalf("pair budget %d, want default", n.PortalMaxActivePairs)
	}
}

func TestWorldConfigNormalizedKeepsZeroCounts(t *testing.T) {
	t.Parallel()

	cfg := DefaultWorldConfig()
	cfg.FoodCount = 0
	cfg.HazardCount = 0
	cfg.PortalJitterMS = 0
	cfg.PortalMinSeparation = 0

	n := cfg.normalized()
	if n.FoodCount != 0 || n.HazardCount != 0 {
		t.Fatalf("zero counts overridden: food=%d hazards=%d", n.FoodCount, n.HazardCount)
	}
	if n.PortalJitterMS != 0 || n.PortalMinSeparation != 0 {
		t.Fatalf("zero tuning overridden: jitter=%v separation=%d", n.PortalJitterMS, n.PortalMinSeparation)
	}
}

func TestWorldConfigNormalizedClampsNegatives(t *testing.T) {
	t.Parallel()

	cfg := DefaultWorldConfig()
	cfg.FoodCount = -2
	cfg.HazardCount = -5
	cfg.PortalMinSeparation = -1
	cfg.SnakeStartLength = -3

	n := cfg.normalized()
	if n.FoodCount != 0 || n.HazardCount != 0 || n.PortalMinSeparation != 0 {
		t.Fatalf("negatives not clamped: %+v", n)
	}
	if n.SnakeStartLength != defaultSnakeLength {
		t.Fatalf("start length %d, want default", n.SnakeStartLength)
	}
}

func TestWorldConfigNormalizedRejectsNonFiniteDurations(t *testing.T) {
	t.Parallel()

	cfg := DefaultWorldConfig()
	cfg.SnakeStepIntervalMS = math.NaN()
	cfg.PortalBaseIntervalMS = math.Inf(1)
	cfg.PortalActiveMS = -100
	cfg.BiomeShiftJitterMS = math.NaN()

	n := cfg.normalized()
	if n.SnakeStepIntervalMS != defaultStepIntervalMS {
		t.Fatalf("NaN step interval kept: %v", n.SnakeStepIntervalMS)
	}
	if n.PortalBaseIntervalMS != defaultPortalBaseIntervalMS {
		t.Fatalf("infinite spawn interval kept: %v", n.PortalBaseIntervalMS)
	}
	if n.PortalActiveMS != defaultPortalActiveMS {
		t.Fatalf("negative active budget kept: %v", n.PortalActiveMS)
	}
	if n.BiomeShiftJitterMS != 0 {
		t.Fatalf("NaN biome jitter kept: %v", n.BiomeShiftJitterMS)
	}
}

func TestWorldConfigNormalizedTrimsSeed(t *testing.T) {
	t.Parallel()

	cfg := DefaultWorldConfig()
	cfg.Seed = "  padded-seed  "
	if n := cfg.normalized(); n.Seed != "padded-seed" {
		t.Fatalf("seed %q, want trimmed", n.Seed)
	}

	cfg.Seed = "   "
	if n := cfg.normalized(); n.Seed != defaultWorldSeed {
		t.Fatalf("blank seed %q, want default", n.Seed)
	}
}

func TestApplyPortalVariantOverlaysTuning(t *testing.T) {
	t.Parallel()

	variant := catalog.Variant{
		Name:           "rift-storm",
		BaseIntervalMS: 12000,
		JitterMS:       2000,
		MaxActivePairs: 3,
		SpawningMS:     400,
		ActiveMS:       9000,
		CollapsingMS:   600,
		MinSeparation:  5,
	}

	cfg := DefaultWorldConfig().ApplyPortalVariant(variant)
	if cfg.PortalVariant != "rift-storm" {
		t.Fatalf("variant name %q", cfg.PortalVariant)
	}
	if cfg.PortalBaseIntervalMS != 12000 || cfg.PortalJitterMS != 2000 {
		t.Fatalf("spawn cadence not applied: %+v", cfg)
	}
	if cfg.PortalMaxActivePairs != 3 || cfg.PortalMinSeparation != 5 {
		t.Fatalf("pair limits not applied: %+v", cfg)
	}
	if cfg.PortalSpawningMS != 400 || cfg.PortalActiveMS != 9000 || cfg.PortalCollapsingMS != 600 {
		t.Fatalf("lifecycle clock not applied: %+v", cfg)
	}
	if cfg.GridCols != defaultGridCols || cfg.FoodCount != defaultFoodCount {
		t.Fatalf("variant touched non-portal tuning: %+v", cfg)
	}
}

func TestPortalDurationsExtract(t *testing.T) {
	t.Parallel()

	cfg := DefaultWorldConfig()
	cfg.PortalSpawningMS = 111
	cfg.PortalActiveMS = 2222
	cfg.PortalCollapsingMS = 333

	d := cfg.portalDurations()
	if d.SpawningMS != 111 || d.ActiveMS != 2222 || d.CollapsingMS != 333 {
		t.Fatalf("extracted durations %+v", d)
	}
}
