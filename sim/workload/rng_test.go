package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_SameStreamIsCached(t *testing.T) {
	p := newPartitionedRNG(42)
	assert.Same(t, p.forStream(StreamSizes), p.forStream(StreamSizes))
}

func TestPartitionedRNG_StreamsAreIsolated(t *testing.T) {
	// GIVEN two generators with the same seed
	a := newPartitionedRNG(42)
	b := newPartitionedRNG(42)

	// WHEN one consumes its key stream first
	for i := 0; i < 100; i++ {
		a.forStream(StreamKeys).Int63()
	}

	// THEN the size streams still agree
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.forStream(StreamSizes).Int63(), b.forStream(StreamSizes).Int63())
	}
}

func TestPartitionedRNG_KeyStreamUsesSeed(t *testing.T) {
	p := newPartitionedRNG(7)
	q := newPartitionedRNG(7)
	assert.NotEqual(t, p.forStream(StreamKeys).Int63(), q.forStream(StreamSizes).Int63())
}
