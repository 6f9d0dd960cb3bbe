package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// SizeSampler draws object sizes in bytes.
type SizeSampler interface {
	// Sample returns a size >= 1.
	Sample(rng *rand.Rand) uint32
}

// SizeSpec names a size distribution and its parameters.
type SizeSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// ConstantSampler always returns the same size.
type ConstantSampler struct {
	value uint32
}

func (s *ConstantSampler) Sample(_ *rand.Rand) uint32 {
	return s.value
}

// UniformSampler draws sizes uniformly from [min, max].
type UniformSampler struct {
	min, max uint32
}

func (s *UniformSampler) Sample(rng *rand.Rand) uint32 {
	return s.min + uint32(rng.Int63n(int64(s.max-s.min)+1))
}

// GaussianSampler produces clamped Gaussian sizes.
type GaussianSampler struct {
	mean, stdDev float64
	min, max     uint32
}

func (s *GaussianSampler) Sample(rng *rand.Rand) uint32 {
	if s.min == s.max {
		return s.min
	}
	val := rng.NormFloat64()*s.stdDev + s.mean
	clamped := math.Min(float64(s.max), math.Max(float64(s.min), val))
	return toSize(clamped)
}

// ExponentialSampler produces exponentially distributed sizes.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) uint32 {
	return toSize(rng.ExpFloat64() * s.mean)
}

// toSize rounds v into [1, MaxUint32].
func toSize(v float64) uint32 {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(math.Round(v))
}

// NewSizeSampler creates a sampler from a SizeSpec.
func NewSizeSampler(spec SizeSpec) (SizeSampler, error) {
	switch spec.Type {
	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		if err := requireSizeRange(spec.Params, "value"); err != nil {
			return nil, err
		}
		return &ConstantSampler{value: uint32(spec.Params["value"])}, nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		if err := requireSizeRange(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := uint32(spec.Params["min"]), uint32(spec.Params["max"])
		if lo > hi {
			return nil, fmt.Errorf("uniform distribution: min %d exceeds max %d", lo, hi)
		}
		return &UniformSampler{min: lo, max: hi}, nil

	case "gaussian":
		if err := requireParam(spec.Params, "mean", "std_dev", "min", "max"); err != nil {
			return nil, err
		}
		if err := requireSizeRange(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		if spec.Params["std_dev"] < 0 {
			return nil, fmt.Errorf("gaussian distribution: std_dev must be non-negative, got %v", spec.Params["std_dev"])
		}
		lo, hi := uint32(spec.Params["min"]), uint32(spec.Params["max"])
		if lo > hi {
			return nil, fmt.Errorf("gaussian distribution: min %d exceeds max %d", lo, hi)
		}
		return &GaussianSampler{
			mean:   spec.Params["mean"],
			stdDev: spec.Params["std_dev"],
			min:    lo,
			max:    hi,
		}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["mean"] <= 0 {
			return nil, fmt.Errorf("exponential distribution: mean must be positive, got %v", spec.Params["mean"])
		}
		return &ExponentialSampler{mean: spec.Params["mean"]}, nil

	default:
		return nil, fmt.Errorf("unknown size distribution %q; valid: %v", spec.Type, validSizeDists)
	}
}

var validSizeDists = []string{"constant", "exponential", "gaussian", "uniform"}

func requireParam(params map[string]float64, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required parameters: %v", missing)
	}
	return nil
}

func requireSizeRange(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		v := params[k]
		if math.IsNaN(v) || v < 1 || v > math.MaxUint32 || v != math.Trunc(v) {
			return fmt.Errorf("parameter %s must be an integer in [1, %d], got %v", k, uint32(math.MaxUint32), v)
		}
	}
	return nil
}
