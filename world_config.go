package server

import (
	"math"
	"strings"

	"warp-and-wind/server/catalog"
)

// WorldConfig carries every tunable the world reads at construction. Zero
// values mean "use the default" for required knobs; counts where zero is a
// real setting (food, hazards, jitter, separation) only have negatives
// clamped.
type WorldConfig struct {
	GridCols int    `json:"gridCols"`
	GridRows int    `json:"gridRows"`
	Seed     string `json:"seed"`

	SnakeStepIntervalMS float64 `json:"snakeStepIntervalMs"`
	SnakeStartLength    int     `json:"snakeStartLength"`

	FoodCount   int `json:"foodCount"`
	HazardCount int `json:"hazardCount"`

	PortalVariant        string  `json:"portalVariant,omitempty"`
	PortalBaseIntervalMS float64 `json:"portalBaseIntervalMs"`
	PortalJitterMS       float64 `json:"portalJitterMs"`
	PortalMaxActivePairs int     `json:"portalMaxActivePairs"`
	PortalSpawningMS     float64 `json:"portalSpawningMs"`
	PortalActiveMS       float64 `json:"portalActiveMs"`
	PortalCollapsingMS   float64 `json:"portalCollapsingMs"`
	PortalMinSeparation  int     `json:"portalMinSeparation"`

	BiomeShiftIntervalMS float64 `json:"biomeShiftIntervalMs"`
	BiomeShiftJitterMS   float64 `json:"biomeShiftJitterMs"`
}

// DefaultWorldConfig returns the playable arcade tuning.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		GridCols:             defaultGridCols,
		GridRows:             defaultGridRows,
		Seed:                 defaultWorldSeed,
		SnakeStepIntervalMS:  defaultStepIntervalMS,
		SnakeStartLength:     defaultSnakeLength,
		FoodCount:            defaultFoodCount,
		HazardCount:          defaultHazardCount,
		PortalBaseIntervalMS: defaultPortalBaseIntervalMS,
		PortalJitterMS:       defaultPortalJitterMS,
		PortalMaxActivePairs: defaultMaxActivePairs,
		PortalSpawningMS:     defaultPortalSpawningMS,
		PortalActiveMS:       defaultPortalActiveMS,
		PortalCollapsingMS:   defaultPortalCollapsingMS,
		PortalMinSeparation:  defaultPortalMinSeparation,
		BiomeShiftIntervalMS: defaultBiomeShiftIntervalMS,
		BiomeShiftJitterMS:   defaultBiomeShiftJitterMS,
	}
}

// normalized returns a config with defaults and clamps applied.
func (cfg WorldConfig) normalized() WorldConfig {
	n := cfg
	n.Seed = strings.TrimSpace(n.Seed)
	if n.Seed == "" {
		n.Seed = defaultWorldSeed
	}
	if n.GridCols <= 0 {
		n.GridCols = defaultGridCols
	}
	if n.GridRows <= 0 {
		n.GridRows = defaultGridRows
	}
	if !finitePositive(n.SnakeStepIntervalMS) {
		n.SnakeStepIntervalMS = defaultStepIntervalMS
	}
	if n.SnakeStartLength < 1 {
		n.SnakeStartLength = defaultSnakeLength
	}
	if n.FoodCount < 0 {
		n.FoodCount = 0
	}
	if n.HazardCount < 0 {
		n.HazardCount = 0
	}
	if !finitePositive(n.PortalBaseIntervalMS) {
		n.PortalBaseIntervalMS = defaultPortalBaseIntervalMS
	}
	if !finiteNonNegative(n.PortalJitterMS) {
		n.PortalJitterMS = 0
	}
	if n.PortalMaxActivePairs < 1 {
		n.PortalMaxActivePairs = defaultMaxActivePairs
	}
	if !finitePositive(n.PortalSpawningMS) {
		n.PortalSpawningMS = defaultPortalSpawningMS
	}
	if !finitePositive(n.PortalActiveMS) {
		n.PortalActiveMS = defaultPortalActiveMS
	}
	if !finitePositive(n.PortalCollapsingMS) {
		n.PortalCollapsingMS = defaultPortalCollapsingMS
	}
	if n.PortalMinSeparation < 0 {
		n.PortalMinSeparation = 0
	}
	if !finitePositive(n.BiomeShiftIntervalMS) {
		n.BiomeShiftIntervalMS = defaultBiomeShiftIntervalMS
	}
	if !finiteNonNegative(n.BiomeShiftJitterMS) {
		n.BiomeShiftJitterMS = 0
	}
	return n
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// portalDurations extracts the lifecycle clock tuning.
func (cfg WorldConfig) portalDurations() PortalDurations {
	return PortalDurations{
		SpawningMS:   cfg.PortalSpawningMS,
		ActiveMS:     cfg.PortalActiveMS,
		CollapsingMS: cfg.PortalCollapsingMS,
	}
}

// ApplyPortalVariant overlays a catalog variant onto the portal tuning.
func (cfg WorldConfig) ApplyPortalVariant(v catalog.Variant) WorldConfig {
	cfg.PortalVariant = v.Name
	cfg.PortalBaseIntervalMS = v.BaseIntervalMS
	cfg.PortalJitterMS = v.JitterMS
	cfg.PortalMaxActivePairs = v.MaxActivePairs
	cfg.PortalSpawningMS = v.SpawningMS
	cfg.PortalActiveMS = v.ActiveMS
	cfg.PortalCollapsingMS = v.CollapsingMS
	cfg.PortalMinSeparation = v.MinSeparation
	return cfg
}
