package workload

import (
	"fmt"
	"math/rand"

	"github.com/cachesim/cachemrc/sim"
)

// Key popularity distributions.
const (
	KeyDistZipf    = "zipf"
	KeyDistUniform = "uniform"
)

// GeneratorConfig describes a synthetic access trace.
type GeneratorConfig struct {
	Seed        int64
	NumAccesses int
	NumKeys     uint64
	KeyDist     string  // "zipf" or "uniform"
	ZipfS       float64 // zipf exponent, must be > 1
	SizeDist    SizeSpec
}

// NewGeneratorConfig returns a zipf(1.2) trace of constant 4 KiB objects.
func NewGeneratorConfig(seed int64, numAccesses int, numKeys uint64) GeneratorConfig {
	return GeneratorConfig{
		Seed:        seed,
		NumAccesses: numAccesses,
		NumKeys:     numKeys,
		KeyDist:     KeyDistZipf,
		ZipfS:       1.2,
		SizeDist:    SizeSpec{Type: "constant", Params: map[string]float64{"value": 4096}},
	}
}

// Validate checks the config.
func (c *GeneratorConfig) Validate() error {
	if c.NumAccesses < 0 {
		return fmt.Errorf("number of accesses must be non-negative, got %d", c.NumAccesses)
	}
	if c.NumKeys == 0 {
		return fmt.Errorf("number of keys must be positive")
	}
	switch c.KeyDist {
	case KeyDistZipf:
		if !(c.ZipfS > 1) {
			return fmt.Errorf("zipf exponent must be > 1, got %v", c.ZipfS)
		}
	case KeyDistUniform:
	default:
		return fmt.Errorf("unknown key distribution %q; valid: [%s %s]", c.KeyDist, KeyDistUniform, KeyDistZipf)
	}
	return nil
}

// GenerateAccesses builds a synthetic trace. Deterministic given the same
// config: key i always has the same size, and the timestamp is the access index.
func GenerateAccesses(cfg GeneratorConfig) ([]sim.AccessRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}
	sizer, err := NewSizeSampler(cfg.SizeDist)
	if err != nil {
		return nil, fmt.Errorf("size distribution: %w", err)
	}

	rng := newPartitionedRNG(cfg.Seed)
	keyRNG := rng.forStream(StreamKeys)
	sizeRNG := rng.forStream(StreamSizes)

	var nextKey func() uint64
	switch cfg.KeyDist {
	case KeyDistZipf:
		zipf := rand.NewZipf(keyRNG, cfg.ZipfS, 1, cfg.NumKeys-1)
		nextKey = zipf.Uint64
	case KeyDistUniform:
		nextKey = func() uint64 { return uint64(keyRNG.Int63n(int64(min(cfg.NumKeys, 1<<62)))) }
	}

	sizes := make(map[uint64]uint32)
	records := make([]sim.AccessRecord, cfg.NumAccesses)
	for i := range records {
		key := nextKey()
		size, ok := sizes[key]
		if !ok {
			size = sizer.Sample(sizeRNG)
			sizes[key] = size
		}
		records[i] = sim.AccessRecord{Timestamp: uint64(i), Key: key, Size: size}
	}
	return records, nil
}
