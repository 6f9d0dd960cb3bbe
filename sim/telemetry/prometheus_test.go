package telemetry

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_AddAccesses_AccumulatesPerPolicy(t *testing.T) {
	r := NewRecorder()
	r.AddAccesses("LRU", 10)
	r.AddAccesses("LRU", 5)
	r.AddAccesses("FIFO", 3)
	r.AddAccesses("FIFO", 0)

	assert.Equal(t, 15.0, testutil.ToFloat64(r.AccessesTotal.WithLabelValues("LRU")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.AccessesTotal.WithLabelValues("FIFO")))
}

func TestRecorder_RecordRun_SetsGaugesAndCounters(t *testing.T) {
	r := NewRecorder()
	r.RecordRun("LRU", 42, 2, 1.5, 0.25)

	assert.Equal(t, 42.0, testutil.ToFloat64(r.SampledAccessesTotal.WithLabelValues("LRU")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.RejectedTotal.WithLabelValues("LRU")))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.SimulationDuration.WithLabelValues("LRU")))
	assert.Equal(t, 0.25, testutil.ToFloat64(r.MinMissRatio.WithLabelValues("LRU")))
}

func TestRecorder_Nil_IsNoOp(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.AddAccesses("LRU", 1)
		r.RecordRun("LRU", 1, 1, 1, 1)
	})
	assert.Nil(t, r.Registry())
}

func TestRecorder_Handler_ExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.AddAccesses("SIEVE", 7)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `cachemrc_accesses_total{policy="SIEVE"} 7`)
}
