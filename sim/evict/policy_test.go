package evict

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resident checks membership without touching reference bits.
func (s *store) resident(key Key) bool {
	_, ok := s.index[key]
	return ok
}

func TestNew_AllKinds_ConstructEmptyInstances(t *testing.T) {
	for _, kind := range ValidKinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, err := New(kind, 1000)
			require.NoError(t, err)
			assert.Equal(t, uint64(1000), p.Capacity())
			assert.Equal(t, uint64(0), p.Used())
			assert.Equal(t, 0, p.Len())
			assert.False(t, p.Get(42))
		})
	}
}

func TestNew_ZeroCapacity_ReturnsNilPolicy(t *testing.T) {
	for _, kind := range ValidKinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, err := New(kind, 0)
			assert.ErrorIs(t, err, ErrInvalidCapacity)
			assert.Nil(t, p)
		})
	}
}

func TestNew_UnknownKind_Fails(t *testing.T) {
	_, err := New(Kind("MRU"), 100)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name  string
		want  Kind
		valid bool
	}{
		{"LRU", LRU, true},
		{"lru", LRU, true},
		{" fifo ", FIFO, true},
		{"Clock", CLOCK, true},
		{"sieve", SIEVE, true},
		{"", "", false},
		{"lfu", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if !tt.valid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidKinds_Sorted(t *testing.T) {
	assert.Equal(t, []Kind{CLOCK, FIFO, LRU, SIEVE}, ValidKinds())
}

func TestPolicies_CapacityInvariant_RandomWorkload(t *testing.T) {
	// GIVEN a random mix of gets and puts with sizes up to and beyond capacity
	const capacity = 500
	for _, kind := range ValidKinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, err := New(kind, capacity)
			require.NoError(t, err)
			rng := rand.New(rand.NewSource(7))
			sizes := make(map[Key]uint64)

			for i := 0; i < 20000; i++ {
				key := Key(rng.Intn(200))
				if p.Get(key) {
					continue
				}
				size := uint64(rng.Intn(capacity/4) + 1)
				if rng.Intn(500) == 0 {
					size = capacity + 1
				}
				sizes[key] = size
				p.Put(key, size)

				// THEN used never exceeds capacity after any put
				require.LessOrEqual(t, p.Used(), p.Capacity(), "step %d", i)
			}

			// AND used equals the sum of resident sizes
			var sum uint64
			resident := 0
			for key, size := range sizes {
				if p.Get(key) {
					sum += size
					resident++
				}
			}
			assert.Equal(t, p.Used(), sum)
			assert.Equal(t, p.Len(), resident)
			assert.Positive(t, p.Rejected())
		})
	}
}

func TestPolicies_OversizedItem_RejectedWithoutEviction(t *testing.T) {
	for _, kind := range ValidKinds() {
		t.Run(string(kind), func(t *testing.T) {
			// GIVEN a capacity-10 cache holding one object
			p, err := New(kind, 10)
			require.NoError(t, err)
			p.Put(1, 5)

			// WHEN an object larger than the whole cache is put
			p.Put(2, 11)

			// THEN it is refused and nothing was evicted for it
			assert.Equal(t, uint64(1), p.Rejected())
			assert.Equal(t, uint64(5), p.Used())
			assert.True(t, p.Get(1))
			assert.False(t, p.Get(2))
		})
	}
}

func TestPolicies_ExactFit_Admitted(t *testing.T) {
	for _, kind := range ValidKinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, err := New(kind, 10)
			require.NoError(t, err)
			p.Put(1, 4)
			p.Put(2, 10)

			assert.True(t, p.Get(2))
			assert.False(t, p.Get(1))
			assert.Equal(t, uint64(10), p.Used())
			assert.Equal(t, uint64(0), p.Rejected())
		})
	}
}

func TestPolicies_Deterministic_SameCallsSameState(t *testing.T) {
	for _, kind := range ValidKinds() {
		t.Run(string(kind), func(t *testing.T) {
			run := func() []bool {
				p, err := New(kind, 64)
				require.NoError(t, err)
				rng := rand.New(rand.NewSource(99))
				var hits []bool
				for i := 0; i < 5000; i++ {
					key := Key(rng.Intn(100))
					hit := p.Get(key)
					if !hit {
						p.Put(key, uint64(rng.Intn(8)+1))
					}
					hits = append(hits, hit)
				}
				return hits
			}
			assert.Equal(t, run(), run())
		})
	}
}
