package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
)

// PromRecorder exposes bridge events as Prometheus metrics.
type PromRecorder struct {
	attempts    *prometheus.CounterVec
	attemptDur  prometheus.Histogram
	failureCode prometheus.Gauge
	discovery   *prometheus.CounterVec
	publishes   *prometheus.CounterVec
	connected   prometheus.Gauge
	heap        prometheus.Gauge
	signal      prometheus.Gauge
}

// NewPromRecorder registers bridge metrics on the default registerer. The
// HTTP endpoint is served separately by StartPromServer.
func NewPromRecorder() (*PromRecorder, error) {
	return NewPromRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromRecorderWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous call are reused.
func NewPromRecorderWithRegistry(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromRecorder{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sfs_mqtt_connect_attempts_total",
			Help: "Broker connection attempts by result",
		}, []string{"result"}),
		attemptDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sfs_mqtt_connect_duration_seconds",
			Help:    "Duration of broker connection attempts",
			Buckets: prometheus.DefBuckets,
		}),
		failureCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sfs_mqtt_last_failure_code",
			Help: "CONNACK code of the last failed attempt, -1 when the broker never answered",
		}),
		discovery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sfs_discovery_publishes_total",
			Help: "Discovery config publishes by sensor and result",
		}, []string{"sensor", "result"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sfs_telemetry_publishes_total",
			Help: "Telemetry publishes by metric and result",
		}, []string{"metric", "result"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sfs_mqtt_connected",
			Help: "1 while the broker session is up",
		}),
		heap: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sfs_heap_usage_percent",
			Help: "Last reported heap usage",
		}),
		signal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sfs_wifi_signal_dbm",
			Help: "Last reported link signal strength",
		}),
	}
	var err error
	if r.attempts, err = register(reg, r.attempts); err != nil {
		return nil, err
	}
	if r.attemptDur, err = register(reg, r.attemptDur); err != nil {
		return nil, err
	}
	if r.failureCode, err = register(reg, r.failureCode); err != nil {
		return nil, err
	}
	if r.discovery, err = register(reg, r.discovery); err != nil {
		return nil, err
	}
	if r.publishes, err = register(reg, r.publishes); err != nil {
		return nil, err
	}
	if r.connected, err = register(reg, r.connected); err != nil {
		return nil, err
	}
	if r.heap, err = register(reg, r.heap); err != nil {
		return nil, err
	}
	if r.signal, err = register(reg, r.signal); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordConnectionAttempt counts the attempt and tracks the failure code.
func (r *PromRecorder) RecordConnectionAttempt(ev coremetrics.ConnectionAttempt) error {
	r.attempts.WithLabelValues(result(ev.Success)).Inc()
	r.attemptDur.Observe(ev.Duration.Seconds())
	if !ev.Success {
		r.failureCode.Set(float64(ev.FailureCode))
	}
	return nil
}

// RecordDiscovery counts discovery publishes. Skipped entries are labelled
// separately from failures.
func (r *PromRecorder) RecordDiscovery(ev coremetrics.DiscoveryEvent) error {
	res := result(ev.Published)
	if ev.Skipped {
		res = "skipped"
	}
	r.discovery.WithLabelValues(ev.Sensor, res).Inc()
	return nil
}

func (r *PromRecorder) RecordPublish(ev coremetrics.PublishEvent) error {
	r.publishes.WithLabelValues(ev.Metric, result(ev.Published)).Inc()
	return nil
}

func (r *PromRecorder) RecordHealth(s coremetrics.HealthSample) error {
	r.heap.Set(float64(s.HeapUsagePct))
	r.signal.Set(float64(s.SignalDBm))
	return nil
}

func (r *PromRecorder) RecordConnectionState(_ string, connected bool) error {
	r.connected.Set(float64(boolToInt(connected)))
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
