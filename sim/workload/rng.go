package workload

import (
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// Generator RNG streams.
const (
	// StreamKeys draws key popularity. Uses the seed directly.
	StreamKeys = "keys"
	// StreamSizes draws object sizes.
	StreamSizes = "sizes"
)

// partitionedRNG hands out one deterministic *rand.Rand per named stream, so
// changing how one stream is consumed never shifts another.
//
// Derivation: StreamKeys uses the seed directly, every other stream uses
// seed XOR xxhash(name). Not thread-safe.
type partitionedRNG struct {
	seed    int64
	streams map[string]*rand.Rand
}

func newPartitionedRNG(seed int64) *partitionedRNG {
	return &partitionedRNG{seed: seed, streams: make(map[string]*rand.Rand)}
}

// forStream returns the cached RNG for name, creating it on first use.
func (p *partitionedRNG) forStream(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	derived := p.seed
	if name != StreamKeys {
		derived ^= int64(xxhash.Sum64String(name))
	}
	rng := rand.New(rand.NewSource(derived))
	p.streams[name] = rng
	return rng
}
