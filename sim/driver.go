package sim

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cachesim/cachemrc/sim/evict"
	"github.com/cachesim/cachemrc/sim/telemetry"
)

// cancelCheckInterval is how many accesses a worker replays between
// context checks.
const cancelCheckInterval = 1 << 16

// SimulateAll replays records once per policy in cfg, each policy in its own
// goroutine, and returns one result per policy in cfg.Policies order.
//
// The trace is shared read-only; every worker owns its sampler, simulator and
// caches. The first failing worker (error, panic or cancellation) cancels the
// others and its error is returned with no results. rec may be nil.
func SimulateAll(ctx context.Context, records []AccessRecord, cfg SimConfig, rec *telemetry.Recorder) ([]SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.Infof("Simulating %d accesses: policies=%v max_cache_size=%d buckets=%d sample_rate=%s",
		len(records), cfg.Policies, cfg.MaxCacheSize, cfg.NumBuckets, formatRate(cfg.SampleRate))

	results := make([]SimulationResult, len(cfg.Policies))
	g, gctx := errgroup.WithContext(ctx)

	for i, kind := range cfg.Policies {
		g.Go(func() error {
			return recoverPanic(kind, func() error {
				res, err := simulatePolicy(gctx, records, &cfg, kind, rec)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// simulatePolicy runs one policy over the whole trace.
func simulatePolicy(ctx context.Context, records []AccessRecord, cfg *SimConfig, kind evict.Kind, rec *telemetry.Recorder) (SimulationResult, error) {
	start := time.Now()

	sampler, err := cfg.newSampler()
	if err != nil {
		return SimulationResult{}, fmt.Errorf("%s: %w", kind, err)
	}
	s, err := NewCurveSimulator(kind, cfg.MaxCacheSize, cfg.NumBuckets, sampler)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("%s: %w", kind, err)
	}

	var pending uint64
	for i := range records {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return SimulationResult{}, fmt.Errorf("%s: simulation interrupted after %d accesses: %w", kind, i, err)
			}
			rec.AddAccesses(string(kind), pending)
			pending = 0
			if i > 0 {
				logrus.Debugf("[%s] %d/%d accesses replayed", kind, i, len(records))
			}
		}
		s.Handle(&records[i])
		pending++
	}
	rec.AddAccesses(string(kind), pending)

	result := SimulationResult{Label: string(s.Kind()), Points: s.Curve()}
	elapsed := time.Since(start)

	logrus.Infof("[%s] finished in %v: %d accesses, %d simulated", kind, elapsed.Round(time.Millisecond), len(records), s.AccessCount())
	if rejected := s.Rejected(); rejected > 0 {
		logrus.Warnf("[%s] %d admissions rejected across all buckets: object larger than bucket capacity", kind, rejected)
	}
	rec.RecordRun(string(kind), s.SampledCount(), s.Rejected(), elapsed.Seconds(), result.MinMissRatio())

	return result, nil
}

// recoverPanic turns a panic in fn into an error so one broken worker fails
// the run instead of the process.
func recoverPanic(kind evict.Kind, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[%s] simulation panicked: %v\n%s", kind, r, debug.Stack())
			err = fmt.Errorf("%s: simulation panicked: %v", kind, r)
		}
	}()
	return fn()
}

func formatRate(rate *float64) string {
	if rate == nil {
		return "off"
	}
	return fmt.Sprintf("%g", *rate)
}
