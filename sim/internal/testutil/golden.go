// Package testutil provides shared test infrastructure for the simulator:
// golden miss ratio curves and float assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_curves.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one trace replayed under several policies, all of which
// must produce MissRatios.
type GoldenTestCase struct {
	Name         string      `json:"name"`
	Policies     []string    `json:"policies"`
	MaxCacheSize uint64      `json:"max_cache_size"`
	Buckets      int         `json:"buckets"`
	Trace        GoldenTrace `json:"trace"`
	MissRatios   []float64   `json:"miss_ratios"`
}

// GoldenTrace describes a cyclic scan: Accesses accesses to keys
// 0, 1, ..., Keys-1, 0, 1, ... each of Size bytes.
type GoldenTrace struct {
	Accesses int    `json:"accesses"`
	Keys     int    `json:"keys"`
	Size     uint32 `json:"size"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_curves.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
