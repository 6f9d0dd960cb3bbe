package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cachesim/cachemrc/sim/workload"
)

var (
	// CLI flags for the generate command
	genOutput    string  // CSV trace to write
	genSeed      int64   // Seed for key and size draws
	genAccesses  int     // Number of accesses
	genKeys      uint64  // Number of distinct keys
	genKeyDist   string  // Key popularity: zipf or uniform
	genZipfS     float64 // Zipf exponent (> 1)
	genSizeDist  string  // Object size distribution
	genSize      float64 // Constant size, or gaussian/exponential mean
	genSizeMin   float64 // Uniform/gaussian lower bound
	genSizeMax   float64 // Uniform/gaussian upper bound
	genSizeStdev float64 // Gaussian standard deviation
)

// generateCmd writes a synthetic trace in the format `run` reads
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic CSV access trace",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := workload.GeneratorConfig{
			Seed:        genSeed,
			NumAccesses: genAccesses,
			NumKeys:     genKeys,
			KeyDist:     genKeyDist,
			ZipfS:       genZipfS,
			SizeDist:    sizeSpecFromFlags(genSizeDist),
		}
		if err := generateTrace(cfg, genOutput); err != nil {
			logrus.Fatalf("Trace generation failed: %v", err)
		}
	},
}

// sizeSpecFromFlags picks the parameters each distribution needs.
func sizeSpecFromFlags(dist string) workload.SizeSpec {
	var params map[string]float64
	switch dist {
	case "constant":
		params = map[string]float64{"value": genSize}
	case "uniform":
		params = map[string]float64{"min": genSizeMin, "max": genSizeMax}
	case "gaussian":
		params = map[string]float64{"mean": genSize, "std_dev": genSizeStdev, "min": genSizeMin, "max": genSizeMax}
	case "exponential":
		params = map[string]float64{"mean": genSize}
	}
	return workload.SizeSpec{Type: dist, Params: params}
}

func generateTrace(cfg workload.GeneratorConfig, path string) error {
	if path == "" {
		return fmt.Errorf("output path is required (--output)")
	}
	records, err := workload.GenerateAccesses(cfg)
	if err != nil {
		return err
	}
	if err := workload.ExportAccessTrace(path, records); err != nil {
		return err
	}
	logrus.Infof("Wrote %d accesses over %d keys (%s) to %s", len(records), cfg.NumKeys, cfg.KeyDist, path)
	return nil
}

func init() {
	generateCmd.Flags().StringVar(&genOutput, "output", "", "CSV trace file to write")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 42, "Seed for key and size generation")
	generateCmd.Flags().IntVar(&genAccesses, "accesses", 100000, "Number of accesses")
	generateCmd.Flags().Uint64Var(&genKeys, "keys", 10000, "Number of distinct keys")
	generateCmd.Flags().StringVar(&genKeyDist, "key-dist", workload.KeyDistZipf, "Key popularity distribution (zipf, uniform)")
	generateCmd.Flags().Float64Var(&genZipfS, "zipf-s", 1.2, "Zipf exponent, must be > 1")
	generateCmd.Flags().StringVar(&genSizeDist, "size-dist", "constant", "Object size distribution (constant, uniform, gaussian, exponential)")
	generateCmd.Flags().Float64Var(&genSize, "size", 4096, "Object size, or mean size for gaussian/exponential")
	generateCmd.Flags().Float64Var(&genSizeMin, "size-min", 1, "Minimum object size for uniform/gaussian")
	generateCmd.Flags().Float64Var(&genSizeMax, "size-max", 65536, "Maximum object size for uniform/gaussian")
	generateCmd.Flags().Float64Var(&genSizeStdev, "size-stdev", 1024, "Object size standard deviation for gaussian")
}
