package server

import (
	"hash/fnv"
	"math/rand"
)

// newDeterministicRNG derives an independent random stream from the world
// seed and a subsystem label. Two worlds built from the same seed draw
// identical sequences for every subsystem regardless of call interleaving.
func newDeterministicRNG(seed, stream string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	h.Write([]byte{0})
	h.Write([]byte(stream))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// subsystemRNG returns the named stream for this world's seed.
func (w *World) subsystemRNG(stream string) *rand.Rand {
	seed := ""
	if w != nil {
		seed = w.seed
	}
	return newDeterministicRNG(seed, stream)
}
