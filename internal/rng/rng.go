// Package rng separates the two random sources spec §5 requires never
// be conflated: field.Split always draws polynomial coefficients from
// crypto/rand (unconditionally, not configurable here — see field.go),
// while the Monte-Carlo simulator needs a seedable, reproducible,
// partitionable deterministic source. This package provides only the
// latter.
package rng

import "math/rand/v2"

// ForPartition derives an independent, reproducible PCG source for
// simulation partition p under masterSeed: the same (masterSeed, p)
// pair always yields the same stream, so a parallel simulation run is
// byte-for-byte reproducible regardless of worker scheduling, and no
// partition's stream overlaps another's.
func ForPartition(masterSeed int64, partition int) *rand.Rand {
	seed1 := uint64(masterSeed)
	seed2 := uint64(partition)*0x9E3779B97F4A7C15 + 0xD1B54A32D192ED03
	return rand.New(rand.NewPCG(seed1, seed2))
}
