package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sfsbridge/core/factory"
	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
)

type lineServer struct {
	mu   sync.Mutex
	body []string
}

func (s *lineServer) handler(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.body = append(s.body, strings.TrimSpace(string(data)))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *lineServer) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.body) == 0 {
		return ""
	}
	return s.body[len(s.body)-1]
}

func TestInfluxRecorder_ConnectionAttempt(t *testing.T) {
	ls := &lineServer{}
	srv := httptest.NewServer(http.HandlerFunc(ls.handler))
	defer srv.Close()

	rec := NewInfluxRecorder(srv.URL, "token", "org", "bucket")
	defer rec.Close()
	now := time.Now()
	ev := coremetrics.ConnectionAttempt{
		Host: "broker.local", Port: 1883, ClientID: "dev1",
		FailureCode: 5, Error: "not authorized", Duration: 120 * time.Millisecond, Time: now,
	}
	require.NoError(t, rec.RecordConnectionAttempt(ev))

	p := write.NewPointWithMeasurement("connection_attempt").
		AddTag("client_id", "dev1").
		AddTag("broker", "broker.local:1883").
		AddTag("success", "false").
		AddField("failure_code", 5).
		AddField("duration_ms", int64(120)).
		AddField("error", "not authorized").
		SetTime(now)
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)), ls.last())
}

func TestInfluxRecorder_DiscoveryAndHealth(t *testing.T) {
	ls := &lineServer{}
	srv := httptest.NewServer(http.HandlerFunc(ls.handler))
	defer srv.Close()

	rec := NewInfluxRecorder(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer rec.Close()

	require.NoError(t, rec.RecordDiscovery(coremetrics.DiscoveryEvent{Sensor: "runout", Skipped: true, Time: time.Now()}))
	assert.Contains(t, ls.last(), "discovery_publish,sensor=runout published=false,skipped=true")

	require.NoError(t, rec.RecordHealth(coremetrics.HealthSample{HeapUsagePct: 40, SignalDBm: -70, Time: time.Now()}))
	assert.Contains(t, ls.last(), "system_health heap_usage_pct=40i,wifi_signal_dbm=-70i")
}

func TestNewInfluxRecorderWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	rec := NewInfluxRecorderWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	_, isInflux := rec.(*InfluxRecorder)
	assert.False(t, isInflux, "expected NopRecorder on failing health check")
	assert.True(t, called)
}

func TestFactory_BuiltinsRegistered(t *testing.T) {
	r, err := coremetrics.NewRecorder(coremetrics.Config{Sinks: nil})
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopRecorder{}, r)

	_, err = coremetrics.NewRecorder(coremetrics.Config{Sinks: []factory.ModuleConfig{{Type: "nop"}}})
	require.NoError(t, err)

	_, err = coremetrics.NewRecorder(coremetrics.Config{Sinks: []factory.ModuleConfig{{Type: "graphite"}}})
	assert.ErrorContains(t, err, "unknown module type")
}
