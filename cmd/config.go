package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cachesim/cachemrc/sim"
	"github.com/cachesim/cachemrc/sim/evict"
	"github.com/cachesim/cachemrc/sim/workload"
)

// RunConfig is the YAML run file accepted by `cachemrc run --config`.
// Every field can also be set by the matching flag, which wins.
type RunConfig struct {
	Trace           string                 `yaml:"trace"`
	Output          string                 `yaml:"output,omitempty"`
	Policies        []string               `yaml:"policies,omitempty"`
	CacheSize       string                 `yaml:"cache_size"`
	SampleRate      *float64               `yaml:"sample_rate,omitempty"`
	Buckets         int                    `yaml:"buckets,omitempty"`
	TargetMissRatio *float64               `yaml:"target_miss_ratio,omitempty"`
	Fields          *workload.FieldMapping `yaml:"fields,omitempty"`
}

// NewRunConfig returns the defaults: LRU over sim.DefaultNumBuckets buckets,
// exact simulation, header-named trace columns.
func NewRunConfig() RunConfig {
	return RunConfig{
		Policies: []string{string(evict.LRU)},
		Buckets:  sim.DefaultNumBuckets,
	}
}

// LoadRunConfig reads a YAML run file over the defaults.
// Unknown keys are errors so typos do not silently fall back to defaults.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := NewRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading run config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing run config %s: %w", path, err)
	}
	return cfg, nil
}

// TraceMapping returns the column mapping for the loader, or nil to select
// columns by header name.
func (c *RunConfig) TraceMapping() *workload.FieldMapping {
	if c.Fields == nil || c.Fields.IsZero() {
		return nil
	}
	return c.Fields
}

// SimConfig converts the run file into a validated simulation config.
func (c *RunConfig) SimConfig() (sim.SimConfig, error) {
	if c.CacheSize == "" {
		return sim.SimConfig{}, fmt.Errorf("cache size is required (--cache-size or cache_size)")
	}
	size, err := ParseSize(c.CacheSize)
	if err != nil {
		return sim.SimConfig{}, fmt.Errorf("cache size: %w", err)
	}

	policies := make([]evict.Kind, 0, len(c.Policies))
	for _, name := range c.Policies {
		kind, err := evict.ParseKind(name)
		if err != nil {
			return sim.SimConfig{}, err
		}
		policies = append(policies, kind)
	}

	cfg := sim.SimConfig{
		MaxCacheSize: size,
		NumBuckets:   c.Buckets,
		SampleRate:   c.SampleRate,
		Policies:     policies,
	}
	if err := cfg.Validate(); err != nil {
		return sim.SimConfig{}, err
	}
	return cfg, nil
}

// Validate checks the fields SimConfig does not cover.
func (c *RunConfig) Validate() error {
	if c.Trace == "" {
		return fmt.Errorf("trace path is required (--trace or trace)")
	}
	if c.TargetMissRatio != nil && !(*c.TargetMissRatio >= 0 && *c.TargetMissRatio <= 1) {
		return fmt.Errorf("target miss ratio must be in [0, 1], got %v", *c.TargetMissRatio)
	}
	if c.Fields != nil {
		if err := c.Fields.Validate(); err != nil {
			return err
		}
	}
	return nil
}
