// Package sim computes miss ratio curves (MRCs) by trace-driven cache simulation.
//
// # Reading Guide
//
//   - access.go: the normalized trace record every loader produces
//   - config.go: run parameters, bucket capacities and validation
//   - curve_simulator.go: one policy replayed against many capacities at once
//   - driver.go: SimulateAll, one goroutine per policy
//
// # Architecture
//
// Implementations live in sub-packages:
//   - sim/evict/: size-aware eviction policies (LRU, FIFO, CLOCK, SIEVE)
//   - sim/shards/: spatially hashed sampling (SHARDS) with capacity scaling
//   - sim/workload/: CSV trace loading and synthetic trace generation
//   - sim/report/: CSV, JSON and plot output of finished curves
//   - sim/telemetry/: Prometheus counters for long runs
//
// A curve has one point per capacity bucket. Bucket i is simulated at
// (i+2)*step bytes and reported at (i+1)*step bytes, where
// step = MaxCacheSize/NumBuckets.
package sim
