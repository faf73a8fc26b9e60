package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
)

func TestPromRecorder_ConnectionAttempts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPromRecorderWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, r.RecordConnectionAttempt(coremetrics.ConnectionAttempt{Success: false, FailureCode: 5, Duration: 20 * time.Millisecond}))
	require.NoError(t, r.RecordConnectionAttempt(coremetrics.ConnectionAttempt{Success: true, Duration: 10 * time.Millisecond}))

	expected := `
# HELP sfs_mqtt_connect_attempts_total Broker connection attempts by result
# TYPE sfs_mqtt_connect_attempts_total counter
sfs_mqtt_connect_attempts_total{result="failure"} 1
sfs_mqtt_connect_attempts_total{result="success"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(r.attempts, strings.NewReader(expected)))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.failureCode))
	assert.Equal(t, 1, testutil.CollectAndCount(r.attemptDur))
}

func TestPromRecorder_DiscoveryPublishHealthState(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPromRecorderWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, r.RecordDiscovery(coremetrics.DiscoveryEvent{Sensor: "movement", Published: true}))
	require.NoError(t, r.RecordDiscovery(coremetrics.DiscoveryEvent{Sensor: "runout", Skipped: true}))
	require.NoError(t, r.RecordPublish(coremetrics.PublishEvent{Metric: "movement", Published: true}))
	require.NoError(t, r.RecordHealth(coremetrics.HealthSample{HeapUsagePct: 42, SignalDBm: -67}))
	require.NoError(t, r.RecordConnectionState("connected", true))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.discovery.WithLabelValues("movement", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.discovery.WithLabelValues("runout", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publishes.WithLabelValues("movement", "success")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.heap))
	assert.Equal(t, -67.0, testutil.ToFloat64(r.signal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.connected))

	require.NoError(t, r.RecordConnectionState("idle", false))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.connected))
}

func TestPromRecorder_ReRegisterReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromRecorderWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromRecorderWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordConnectionAttempt(coremetrics.ConnectionAttempt{Success: true}))
	assert.Equal(t, 1.0, testutil.ToFloat64(second.attempts.WithLabelValues("success")))
}

func TestPromHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPromRecorderWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, r.RecordConnectionState("connected", true))

	srv := httptest.NewServer(NewPromHandler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sfs_mqtt_connected 1")
}
