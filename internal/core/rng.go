package core

import (
	"hash/fnv"
	"math/rand"
)

// NewRNG returns the session's deterministic PRNG for one named stream.
// Each component draws from its own stream, so adding randomness to one
// component never shifts the sequence another one sees.
func NewRNG(seed uint64, stream string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(stream)) //nolint:errcheck // hash writes never fail
	return rand.New(rand.NewSource(int64(splitmix64(seed ^ h.Sum64()))))
}

// splitmix64 scrambles nearby seeds into unrelated states.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
