package server

import "math"

// Biome names the ambient skin of the play-field. Every shift destabilizes
// the open rifts, forcing them into their wind-down.
type Biome string

const (
	BiomeMeadow Biome = "meadow"
	BiomeTundra Biome = "tundra"
	BiomeEmber  Biome = "emberfield"
	BiomeMarsh  Biome = "voidmarsh"
)

// biomeOrder is the fixed rotation the field cycles through.
var biomeOrder = []Biome{BiomeMeadow, BiomeTundra, BiomeEmber, BiomeMarsh}

// biomeSystem rotates the biome on a jittered timer fed by the world clock.
type biomeSystem struct {
	baseMS   float64
	jitterMS float64
	rng      RandomSource

	current  Biome
	index    int
	timerMS  float64
	targetMS float64
}

func newBiomeSystem(cfg WorldConfig, rng RandomSource) *biomeSystem {
	cfg = cfg.normalized()
	b := &biomeSystem{
		baseMS:   cfg.BiomeShiftIntervalMS,
		jitterMS: cfg.BiomeShiftJitterMS,
		rng:      rng,
		current:  biomeOrder[0],
	}
	b.targetMS = b.rollTarget()
	return b
}

// reset rewinds the rotation to its first biome and re-arms the timer.
func (b *biomeSystem) reset() {
	b.index = 0
	b.current = biomeOrder[0]
	b.timerMS = 0
	b.targetMS = b.rollTarget()
}

func (b *biomeSystem) rollTarget() float64 {
	target := b.baseMS
	if b.jitterMS > 0 && b.rng != nil {
		target += (b.rng.Float64()*2 - 1) * b.jitterMS
	}
	if target < 1 {
		target = 1
	}
	return target
}

// advance accumulates time and returns each shift the delta crossed, in
// order. Non-positive, NaN or infinite deltas change nothing.
func (b *biomeSystem) advance(deltaMS float64) []Biome {
	if b == nil || !(deltaMS > 0) || math.IsInf(deltaMS, 0) {
		return nil
	}
	b.timerMS += deltaMS
	var shifts []Biome
	for b.timerMS >= b.targetMS {
		b.timerMS -= b.targetMS
		b.index = (b.index + 1) % len(biomeOrder)
		b.current = biomeOrder[b.index]
		shifts = append(shifts, b.current)
		b.targetMS = b.rollTarget()
	}
	return shifts
}
