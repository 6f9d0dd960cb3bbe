package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/cachesim/cachemrc/sim/evict"
	"github.com/cachesim/cachemrc/sim/shards"
)

const (
	// DefaultNumBuckets is the number of capacities simulated per policy.
	DefaultNumBuckets = 100
	// MinBucketCapacity is the exclusive lower bound on every simulated capacity.
	MinBucketCapacity = 100
)

// ErrInvalidConfig wraps every SimConfig validation failure.
var ErrInvalidConfig = errors.New("invalid simulation config")

// SimConfig groups the parameters of one run.
type SimConfig struct {
	MaxCacheSize uint64       // largest capacity of interest, in bytes (must be > 0)
	NumBuckets   int          // number of capacity buckets (must be > 0)
	SampleRate   *float64     // nil = exact simulation; otherwise in (0, 1]
	Policies     []evict.Kind // non-empty, no duplicates; simulated in this order
}

// NewSimConfig creates a SimConfig with DefaultNumBuckets and the LRU policy.
func NewSimConfig(maxCacheSize uint64) SimConfig {
	return SimConfig{
		MaxCacheSize: maxCacheSize,
		NumBuckets:   DefaultNumBuckets,
		Policies:     []evict.Kind{evict.LRU},
	}
}

// BucketStep is the capacity increment between consecutive buckets.
func BucketStep(maxCacheSize uint64, numBuckets int) uint64 {
	return maxCacheSize / uint64(numBuckets)
}

// SimulatedCapacity is the capacity of bucket i before sampling is applied.
// Buckets start at the second step, not the first; the reported capacity
// (ReportedCapacity) of the same bucket is one step smaller.
func SimulatedCapacity(i int, maxCacheSize uint64, numBuckets int) uint64 {
	return uint64(i+2) * BucketStep(maxCacheSize, numBuckets)
}

// ReportedCapacity is the capacity bucket i is reported at on the curve.
func ReportedCapacity(i int, maxCacheSize uint64, numBuckets int) uint64 {
	return uint64(i+1) * BucketStep(maxCacheSize, numBuckets)
}

// Validate checks the config before any simulation work starts.
func (c *SimConfig) Validate() error {
	if c.MaxCacheSize == 0 {
		return fmt.Errorf("%w: max cache size must be positive", ErrInvalidConfig)
	}
	if c.MaxCacheSize > math.MaxInt64 {
		return fmt.Errorf("%w: max cache size %d exceeds %d", ErrInvalidConfig, c.MaxCacheSize, uint64(math.MaxInt64))
	}
	if c.NumBuckets <= 0 {
		return fmt.Errorf("%w: number of buckets must be positive, got %d", ErrInvalidConfig, c.NumBuckets)
	}
	if len(c.Policies) == 0 {
		return fmt.Errorf("%w: at least one eviction policy required", ErrInvalidConfig)
	}
	seen := make(map[evict.Kind]bool, len(c.Policies))
	for _, p := range c.Policies {
		if !evict.IsValidKind(p) {
			return fmt.Errorf("%w: unknown eviction policy %q; valid: %v", ErrInvalidConfig, p, evict.ValidKinds())
		}
		if seen[p] {
			return fmt.Errorf("%w: eviction policy %q listed twice", ErrInvalidConfig, p)
		}
		seen[p] = true
	}

	smallest := SimulatedCapacity(0, c.MaxCacheSize, c.NumBuckets)
	if smallest <= MinBucketCapacity {
		return fmt.Errorf("%w: smallest bucket capacity %d must exceed %d; raise the cache size (%d) or lower the bucket count (%d)",
			ErrInvalidConfig, smallest, MinBucketCapacity, c.MaxCacheSize, c.NumBuckets)
	}

	if c.SampleRate != nil {
		sampler, err := shards.NewFixedRate(*c.SampleRate)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if sampler.Scale(smallest) == 0 {
			return fmt.Errorf("%w: sample rate %v scales the smallest bucket capacity %d to zero",
				ErrInvalidConfig, *c.SampleRate, smallest)
		}
	}
	return nil
}

// newSampler returns a fresh sampler for one policy's run, or nil when
// sampling is disabled. The config must be valid.
func (c *SimConfig) newSampler() (shards.Sampler, error) {
	if c.SampleRate == nil {
		return nil, nil
	}
	sampler, err := shards.NewFixedRate(*c.SampleRate)
	if err != nil {
		return nil, err
	}
	return sampler, nil
}
