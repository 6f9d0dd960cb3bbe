// Package shards implements SHARDS-style fixed-rate spatial sampling.
//
// A key is observed iff hash(key) mod Modulus < threshold, so every access to
// a given key is consistently kept or dropped for the whole run. Simulated
// cache capacities are shrunk by the same rate (Scale), which preserves the
// relative behaviour of an eviction policy while processing roughly rate×N
// accesses.
//
// This is a statistical approximation: accuracy grows with the rate and the
// number of distinct keys, and curves computed at low rates are noisier.
// Per-access counters (SampledCount, ExpectedCount) let callers correct the
// bias introduced when the sampled sub-population is not exactly rate of the
// traffic.
package shards

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// Modulus is the size of the hash space the threshold is compared against.
const Modulus = 1000

// Sampler decides per key whether an access is observed and scales capacities
// to match the sampled sub-trace.
type Sampler interface {
	// Sample counts the access and reports whether it belongs to the sample.
	Sample(key uint64) bool
	// Scale shrinks a capacity by the sampling rate (truncated).
	Scale(size uint64) uint64
	Rate() float64
	SampledCount() uint64
	// ExpectedCount is Rate() times the number of accesses seen by Sample.
	ExpectedCount() float64
}

// FixedRate is a Sampler with a constant global threshold.
// Not thread-safe: each simulation owns its own instance.
type FixedRate struct {
	threshold uint64
	sampled   uint64
	total     uint64
}

// NewFixedRate creates a sampler for rate in (0, 1].
// The threshold is round(rate * Modulus) and must be at least 1.
func NewFixedRate(rate float64) (*FixedRate, error) {
	if math.IsNaN(rate) || rate <= 0 || rate > 1 {
		return nil, fmt.Errorf("sample rate must be in (0, 1], got %v", rate)
	}
	threshold := uint64(math.Round(rate * Modulus))
	if threshold == 0 {
		return nil, fmt.Errorf("sample rate %v is below the sampling resolution 1/%d", rate, Modulus)
	}
	return &FixedRate{threshold: threshold}, nil
}

// hashKey is a stable 64-bit hash of the key's little-endian encoding.
func hashKey(key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return xxhash.Sum64(buf[:])
}

func (s *FixedRate) Sample(key uint64) bool {
	s.total++
	if hashKey(key)%Modulus < s.threshold {
		s.sampled++
		return true
	}
	return false
}

// Scale returns floor(size * threshold / Modulus), computed in integers.
func (s *FixedRate) Scale(size uint64) uint64 {
	hi, lo := bits.Mul64(size, s.threshold)
	// threshold <= Modulus keeps hi below Modulus, so Div64 cannot overflow.
	q, _ := bits.Div64(hi, lo, Modulus)
	return q
}

func (s *FixedRate) Rate() float64 {
	return float64(s.threshold) / Modulus
}

// Threshold returns the hash cut-off in [1, Modulus].
func (s *FixedRate) Threshold() uint64 { return s.threshold }

func (s *FixedRate) SampledCount() uint64 { return s.sampled }

// TotalCount returns the number of accesses passed to Sample.
func (s *FixedRate) TotalCount() uint64 { return s.total }

func (s *FixedRate) ExpectedCount() float64 {
	return s.Rate() * float64(s.total)
}
