package sim

import (
	"fmt"

	"github.com/cachesim/cachemrc/sim/evict"
	"github.com/cachesim/cachemrc/sim/shards"
)

// CurveSimulator replays a trace through NumBuckets cache instances of one
// eviction policy, each with a different capacity, and derives a miss ratio
// curve from their hit counts.
//
// Not thread-safe: one simulator belongs to one goroutine.
type CurveSimulator struct {
	kind         evict.Kind
	maxCacheSize uint64
	caches       []evict.Policy // strictly increasing capacity
	hits         []uint64       // hits[i] belongs to caches[i]
	accessCount  uint64         // accesses that reached the caches (after sampling)
	sampler      shards.Sampler // nil = exact simulation
}

// NewCurveSimulator builds numBuckets instances of kind. Bucket i has capacity
// SimulatedCapacity(i, ...), shrunk by sampler.Scale when a sampler is given.
func NewCurveSimulator(kind evict.Kind, maxCacheSize uint64, numBuckets int, sampler shards.Sampler) (*CurveSimulator, error) {
	if numBuckets <= 0 {
		return nil, fmt.Errorf("%w: number of buckets must be positive, got %d", ErrInvalidConfig, numBuckets)
	}
	caches := make([]evict.Policy, 0, numBuckets)
	for i := 0; i < numBuckets; i++ {
		capacity := SimulatedCapacity(i, maxCacheSize, numBuckets)
		if capacity <= MinBucketCapacity {
			return nil, fmt.Errorf("%w: bucket %d capacity %d must exceed %d", ErrInvalidConfig, i, capacity, MinBucketCapacity)
		}
		if sampler != nil {
			capacity = sampler.Scale(capacity)
		}
		cache, err := evict.New(kind, capacity)
		if err != nil {
			return nil, fmt.Errorf("creating %s bucket %d: %w", kind, i, err)
		}
		caches = append(caches, cache)
	}
	return &CurveSimulator{
		kind:         kind,
		maxCacheSize: maxCacheSize,
		caches:       caches,
		hits:         make([]uint64, numBuckets),
		sampler:      sampler,
	}, nil
}

// Handle replays one access. Accesses rejected by the sampler leave no trace:
// no counter moves and no cache is touched.
func (s *CurveSimulator) Handle(access *AccessRecord) {
	if s.sampler != nil && !s.sampler.Sample(access.Key) {
		return
	}
	s.accessCount++

	size := access.NormalizedSize()
	for i, cache := range s.caches {
		if cache.Get(access.Key) {
			s.hits[i]++
		} else {
			cache.Put(access.Key, size)
		}
	}
}

// Curve returns one point per bucket, in increasing capacity order.
// Capacities are reported in the requested (unscaled) units. With sampling,
// each miss ratio is multiplied by sampled/expected accesses and clamped to
// [0, 1]. With no accesses every point has miss ratio 1.
func (s *CurveSimulator) Curve() []Point {
	n := len(s.caches)
	points := make([]Point, 0, n)

	correction := 1.0
	if s.sampler != nil && s.sampler.ExpectedCount() > 0 {
		correction = float64(s.sampler.SampledCount()) / s.sampler.ExpectedCount()
	}

	for i, hit := range s.hits {
		missRatio := 1.0
		if s.accessCount > 0 {
			missRatio = 1.0 - float64(hit)/float64(s.accessCount)
			if s.sampler != nil {
				missRatio = clamp01(missRatio * correction)
			}
		}
		points = append(points, Point{
			Capacity:  float64(ReportedCapacity(i, s.maxCacheSize, n)),
			MissRatio: missRatio,
		})
	}
	return points
}

func clamp01(v float64) float64 {
	return min(1.0, max(0.0, v))
}

// Kind returns the eviction policy being simulated.
func (s *CurveSimulator) Kind() evict.Kind { return s.kind }

// AccessCount returns the number of accesses that reached the caches.
func (s *CurveSimulator) AccessCount() uint64 { return s.accessCount }

// Hits returns a copy of the per-bucket hit counters.
func (s *CurveSimulator) Hits() []uint64 {
	return append([]uint64(nil), s.hits...)
}

// Capacities returns the capacities the buckets actually simulate
// (after sampling scale-down).
func (s *CurveSimulator) Capacities() []uint64 {
	caps := make([]uint64, len(s.caches))
	for i, c := range s.caches {
		caps[i] = c.Capacity()
	}
	return caps
}

// Rejected returns the oversized admissions refused, summed over buckets.
func (s *CurveSimulator) Rejected() uint64 {
	var total uint64
	for _, c := range s.caches {
		total += c.Rejected()
	}
	return total
}

// SampledCount returns the number of accesses kept by the sampler, or the
// plain access count when sampling is disabled.
func (s *CurveSimulator) SampledCount() uint64 {
	if s.sampler == nil {
		return s.accessCount
	}
	return s.sampler.SampledCount()
}
