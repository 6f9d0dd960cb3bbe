package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cachesim/cachemrc/sim"
	"github.com/cachesim/cachemrc/sim/report"
	"github.com/cachesim/cachemrc/sim/telemetry"
	"github.com/cachesim/cachemrc/sim/workload"
)

var (
	// CLI flags for the run command
	configPath      string   // YAML run file; flags override its values
	tracePath       string   // CSV trace to replay
	outputPath      string   // Curve output (.csv, .json, .png, .svg, .pdf)
	policyNames     []string // Eviction policies to simulate
	cacheSize       string   // Largest cache size of interest (e.g. 2GB)
	sampleRate      float64  // SHARDS sample rate in (0, 1]; unset = exact
	numBuckets      int      // Capacity buckets per policy
	targetMissRatio float64  // Report the smallest capacity reaching this miss ratio
	metricsAddr     string   // Serve Prometheus metrics on this address while running
	logLevel        string   // Log verbosity level

	// Trace column indices, -1 = use the default value
	timestampField int
	commandField   int
	keyField       int
	sizeField      int
	ttlField       int
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cachemrc",
	Short: "Miss ratio curve simulator for cache eviction policies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd replays a trace and writes the miss ratio curves
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute miss ratio curves for a trace",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := NewRunConfig()
		if configPath != "" {
			var err error
			cfg, err = LoadRunConfig(configPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		applyRunFlags(cmd, &cfg)

		var rec *telemetry.Recorder
		if metricsAddr != "" {
			rec = telemetry.NewRecorder()
			stop, err := serveMetrics(metricsAddr, rec)
			if err != nil {
				logrus.Fatalf("Metrics server: %v", err)
			}
			defer stop()
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := runSimulation(ctx, &cfg, os.Stdout, rec); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// applyRunFlags copies explicitly set flags over the run file values.
func applyRunFlags(cmd *cobra.Command, cfg *RunConfig) {
	flags := cmd.Flags()
	if flags.Changed("trace") {
		cfg.Trace = tracePath
	}
	if flags.Changed("output") {
		cfg.Output = outputPath
	}
	if flags.Changed("policies") {
		cfg.Policies = policyNames
	}
	if flags.Changed("cache-size") {
		cfg.CacheSize = cacheSize
	}
	if flags.Changed("sample-rate") {
		rate := sampleRate
		cfg.SampleRate = &rate
	}
	if flags.Changed("buckets") {
		cfg.Buckets = numBuckets
	}
	if flags.Changed("target-miss-ratio") {
		target := targetMissRatio
		cfg.TargetMissRatio = &target
	}

	fieldFlags := []struct {
		name  string
		value int
		dst   func(m *workload.FieldMapping) *int
	}{
		{"timestamp-field", timestampField, func(m *workload.FieldMapping) *int { return &m.Timestamp }},
		{"command-field", commandField, func(m *workload.FieldMapping) *int { return &m.Command }},
		{"key-field", keyField, func(m *workload.FieldMapping) *int { return &m.Key }},
		{"size-field", sizeField, func(m *workload.FieldMapping) *int { return &m.Size }},
		{"ttl-field", ttlField, func(m *workload.FieldMapping) *int { return &m.TTL }},
	}
	for _, f := range fieldFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if cfg.Fields == nil {
			m := workload.NewFieldMapping()
			cfg.Fields = &m
		}
		*f.dst(cfg.Fields) = f.value
	}
}

// runSimulation loads the trace, simulates every policy and reports the
// curves to stdout and, if configured, the output file.
func runSimulation(ctx context.Context, cfg *RunConfig, stdout io.Writer, rec *telemetry.Recorder) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	startTime := time.Now()
	records, err := workload.LoadAccessTrace(cfg.Trace, cfg.TraceMapping())
	if err != nil {
		return err
	}
	logrus.Infof("Loaded %d accesses from %s in %v", len(records), cfg.Trace, time.Since(startTime).Round(time.Millisecond))
	if len(records) == 0 {
		logrus.Warnf("Trace %s has no accesses; every miss ratio will be 1", cfg.Trace)
	}
	for i := range min(5, len(records)) {
		logrus.Debugf("access %d: %+v", i, records[i])
	}

	results, err := sim.SimulateAll(ctx, records, simCfg, rec)
	if err != nil {
		return err
	}

	report.PrintTable(stdout, results)
	if cfg.TargetMissRatio != nil {
		printMinCapacities(stdout, results, *cfg.TargetMissRatio)
	}

	if cfg.Output != "" {
		if err := report.Save(results, cfg.Output); err != nil {
			return err
		}
		logrus.Infof("Miss ratio curves written to %s", cfg.Output)
	}
	return nil
}

func printMinCapacities(w io.Writer, results []sim.SimulationResult, target float64) {
	_, _ = fmt.Fprintf(w, "=== Minimum Cache Size for Miss Ratio <= %.4f ===\n", target)
	for _, r := range results {
		if capacity, ok := r.MinCapacity(target); ok {
			_, _ = fmt.Fprintf(w, "%-6s : %s (%.0f bytes)\n", r.Label, report.FormatBytes(capacity), capacity)
		} else {
			_, _ = fmt.Fprintf(w, "%-6s : not reached (min miss ratio %.4f)\n", r.Label, r.MinMissRatio())
		}
	}
}

// serveMetrics binds addr and exposes rec on /metrics until the returned
// stop is called. A bind failure is returned before anything is served.
func serveMetrics(addr string, rec *telemetry.Recorder) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logrus.Infof("Serving metrics on %s/metrics", ln.Addr())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("Metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run file; explicitly set flags override its values")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "CSV trace file with a header row")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Output file for the curves (.csv, .json, .png, .svg, .pdf)")
	runCmd.Flags().StringSliceVar(&policyNames, "policies", []string{"LRU"}, "Comma-separated eviction policies (LRU, FIFO, CLOCK, SIEVE)")
	runCmd.Flags().StringVar(&cacheSize, "cache-size", "", "Largest cache size of interest (e.g. 100KB, 2GB)")
	runCmd.Flags().Float64Var(&sampleRate, "sample-rate", 1.0, "SHARDS sample rate in (0, 1]; omit for exact simulation")
	runCmd.Flags().IntVar(&numBuckets, "buckets", sim.DefaultNumBuckets, "Number of cache sizes simulated per policy")
	runCmd.Flags().Float64Var(&targetMissRatio, "target-miss-ratio", 0, "Print the smallest cache size reaching this miss ratio")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	// Custom trace layout: zero-based column index, -1 for the default value
	runCmd.Flags().IntVar(&timestampField, "timestamp-field", workload.Unmapped, "Column index of the timestamp")
	runCmd.Flags().IntVar(&commandField, "command-field", workload.Unmapped, "Column index of the command")
	runCmd.Flags().IntVar(&keyField, "key-field", workload.Unmapped, "Column index of the object key")
	runCmd.Flags().IntVar(&sizeField, "size-field", workload.Unmapped, "Column index of the object size (default size 1)")
	runCmd.Flags().IntVar(&ttlField, "ttl-field", workload.Unmapped, "Column index of the TTL")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
}
