package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
	"github.com/kilianp07/sfsbridge/infra/logger"
)

const influxWriteTimeout = 5 * time.Second

// InfluxRecorder writes bridge events to an InfluxDB instance using the
// official client.
type InfluxRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxRecorder creates a recorder for the given InfluxDB endpoint.
func NewInfluxRecorder(url, token, org, bucket string) *InfluxRecorder {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: influxWriteTimeout}))
	return &InfluxRecorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-recorder"),
	}
}

// NewInfluxRecorderWithFallback pings the InfluxDB instance and returns a
// NopRecorder if the health check fails.
func NewInfluxRecorderWithFallback(url, token, org, bucket string) coremetrics.Recorder {
	rec := NewInfluxRecorder(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), influxWriteTimeout)
	defer cancel()
	health, err := rec.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			rec.log.Errorf("influx health check error: %v", err)
		} else {
			rec.log.Errorf("influx health status: %s", health.Status)
		}
		rec.client.Close()
		return coremetrics.NopRecorder{}
	}
	return rec
}

func (r *InfluxRecorder) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxWriteTimeout)
	defer cancel()
	return r.writeAPI.WritePoint(ctx, p)
}

// RecordConnectionAttempt writes a connection_attempt point.
func (r *InfluxRecorder) RecordConnectionAttempt(ev coremetrics.ConnectionAttempt) error {
	p := write.NewPointWithMeasurement("connection_attempt").
		AddTag("client_id", ev.ClientID).
		AddTag("broker", ev.Host+":"+strconv.Itoa(ev.Port)).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("failure_code", ev.FailureCode).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	return r.write(p)
}

// RecordDiscovery writes a discovery_publish point.
func (r *InfluxRecorder) RecordDiscovery(ev coremetrics.DiscoveryEvent) error {
	p := write.NewPointWithMeasurement("discovery_publish").
		AddTag("sensor", ev.Sensor).
		AddField("published", ev.Published).
		AddField("skipped", ev.Skipped).
		SetTime(ev.Time)
	return r.write(p)
}

// RecordHealth writes a system_health point.
func (r *InfluxRecorder) RecordHealth(s coremetrics.HealthSample) error {
	p := write.NewPointWithMeasurement("system_health").
		AddField("heap_usage_pct", s.HeapUsagePct).
		AddField("wifi_signal_dbm", s.SignalDBm).
		SetTime(s.Time)
	return r.write(p)
}

// Close releases the underlying HTTP client.
func (r *InfluxRecorder) Close() error {
	r.client.Close()
	return nil
}
