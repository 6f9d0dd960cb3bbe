package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachesim/cachemrc/sim/telemetry"
	"github.com/cachesim/cachemrc/sim/workload"
)

// cyclicTraceCSV writes n accesses cycling over numKeys one-byte keys.
func cyclicTraceCSV(t *testing.T, n, numKeys int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("timestamp,command,key,size,ttl\n")
	for i := 0; i < n; i++ {
		b.WriteString(strings.Join([]string{strconv.Itoa(i), "0", strconv.Itoa(i % numKeys), "1", "0"}, ","))
		b.WriteString("\n")
	}
	return writeFile(t, "trace.csv", b.String())
}

func TestRunSimulation_EndToEnd(t *testing.T) {
	// GIVEN 1000 accesses over 50 keys and a CSV output
	out := filepath.Join(t.TempDir(), "mrc.csv")
	cfg := NewRunConfig()
	cfg.Trace = cyclicTraceCSV(t, 1000, 50)
	cfg.Output = out
	cfg.CacheSize = "10000"
	cfg.Policies = []string{"LRU", "FIFO"}
	target := 0.1
	cfg.TargetMissRatio = &target
	rec := telemetry.NewRecorder()

	// WHEN the run executes
	var stdout bytes.Buffer
	require.NoError(t, runSimulation(context.Background(), &cfg, &stdout, rec))

	// THEN the table and capacity plan are printed
	assert.Contains(t, stdout.String(), "=== Miss Ratio Curves ===")
	assert.Contains(t, stdout.String(), "LRU    : 100 B (100 bytes)")

	// AND the CSV holds 100 points per policy, each at the cold-miss ratio
	file, err := os.Open(out)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+2*100)
	assert.Equal(t, []string{"policy", "capacity", "miss_ratio"}, rows[0])
	assert.Equal(t, "LRU", rows[1][0])
	assert.Equal(t, "100", rows[1][1])
	assert.Equal(t, "FIFO", rows[101][0])

	// AND telemetry saw every access
	assert.Equal(t, 1000.0, testutil.ToFloat64(rec.AccessesTotal.WithLabelValues("FIFO")))
}

func TestRunSimulation_CustomFieldMapping(t *testing.T) {
	// GIVEN a trace whose key is in column 1 and has no size column
	path := writeFile(t, "custom.csv", "ts,obj\n1,a\n2,b\n3,a\n4,b\n")
	cfg := NewRunConfig()
	cfg.Trace = path
	cfg.CacheSize = "1000"
	cfg.Buckets = 2
	m := workload.NewFieldMapping()
	m.Timestamp, m.Key = 0, 1
	cfg.Fields = &m

	var stdout bytes.Buffer
	require.NoError(t, runSimulation(context.Background(), &cfg, &stdout, nil))

	// two cold misses out of four
	assert.Contains(t, stdout.String(), "Min Miss Ratio : 0.5000")
}

func TestRunSimulation_Errors(t *testing.T) {
	trace := cyclicTraceCSV(t, 10, 5)
	tests := []struct {
		name   string
		mutate func(c *RunConfig)
	}{
		{"missing trace", func(c *RunConfig) { c.Trace = "" }},
		{"trace not found", func(c *RunConfig) { c.Trace = filepath.Join(t.TempDir(), "none.csv") }},
		{"invalid config", func(c *RunConfig) { c.Buckets = 0 }},
		{"unsupported output", func(c *RunConfig) { c.Output = filepath.Join(t.TempDir(), "mrc.txt") }},
		{"fields without key", func(c *RunConfig) {
			m := workload.NewFieldMapping()
			m.Size = 1
			c.Fields = &m
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewRunConfig()
			cfg.Trace = trace
			cfg.CacheSize = "1MB"
			tc.mutate(&cfg)
			assert.Error(t, runSimulation(context.Background(), &cfg, &bytes.Buffer{}, nil))
		})
	}
}

func TestRunSimulation_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := NewRunConfig()
	cfg.Trace = cyclicTraceCSV(t, 10, 5)
	cfg.CacheSize = "1MB"

	err := runSimulation(ctx, &cfg, &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyRunFlags_OnlyChangedFlagsOverride(t *testing.T) {
	flags := runCmd.Flags()
	t.Cleanup(func() {
		for _, name := range []string{"cache-size", "sample-rate", "key-field"} {
			f := flags.Lookup(name)
			require.NoError(t, f.Value.Set(f.DefValue))
			f.Changed = false
		}
	})

	// GIVEN a run file value and three explicit flags
	cfg := NewRunConfig()
	cfg.Trace = "from-file.csv"
	cfg.CacheSize = "1GB"
	require.NoError(t, flags.Set("cache-size", "2GB"))
	require.NoError(t, flags.Set("sample-rate", "0.1"))
	require.NoError(t, flags.Set("key-field", "4"))

	// WHEN flags are applied
	applyRunFlags(runCmd, &cfg)

	// THEN changed flags win and the rest of the file is kept
	assert.Equal(t, "from-file.csv", cfg.Trace)
	assert.Equal(t, "2GB", cfg.CacheSize)
	require.NotNil(t, cfg.SampleRate)
	assert.Equal(t, 0.1, *cfg.SampleRate)
	require.NotNil(t, cfg.Fields)
	assert.Equal(t, 4, cfg.Fields.Key)
	assert.Equal(t, workload.Unmapped, cfg.Fields.Size)
	assert.Equal(t, []string{"LRU"}, cfg.Policies)
}

func TestServeMetrics_AddressInUse(t *testing.T) {
	// GIVEN a port already bound by another listener
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	// WHEN metrics are served on the same address
	stop, err := serveMetrics(busy.Addr().String(), telemetry.NewRecorder())

	// THEN the bind failure is reported before the run starts
	require.Error(t, err)
	assert.Contains(t, err.Error(), busy.Addr().String())
	assert.Nil(t, stop)
}

func TestServeMetrics_ServesRecorder(t *testing.T) {
	// GIVEN a free local port
	free, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := free.Addr().String()
	require.NoError(t, free.Close())

	// WHEN metrics are served there
	rec := telemetry.NewRecorder()
	rec.AddAccesses("LRU", 3)
	stop, err := serveMetrics(addr, rec)
	require.NoError(t, err)
	defer stop()

	// THEN /metrics answers with the recorder's series
	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `policy="LRU"`)
}
