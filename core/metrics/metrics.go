package metrics

import "time"

// ConnectionAttempt describes one broker connection attempt.
type ConnectionAttempt struct {
	Host     string
	Port     int
	ClientID string
	Success  bool
	// FailureCode is the broker CONNACK code, or -1 when the broker never answered.
	FailureCode int
	Error       string
	Duration    time.Duration
	Time        time.Time
}

// DiscoveryEvent is the outcome of one discovery config publish.
type DiscoveryEvent struct {
	Sensor    string
	Topic     string
	Published bool
	// Skipped is set when the session dropped before the entry was reached.
	Skipped bool
	Error   string
	Time    time.Time
}

// PublishEvent is the outcome of one telemetry publish.
type PublishEvent struct {
	Metric    string
	Topic     string
	Published bool
	Time      time.Time
}

// HealthSample is a device health snapshot.
type HealthSample struct {
	HeapUsagePct int
	SignalDBm    int
	Time         time.Time
}

// Recorder records bridge events for observability purposes. Errors are
// reported to the caller, which only logs them.
type Recorder interface {
	RecordConnectionAttempt(ev ConnectionAttempt) error
}

// DiscoveryRecorder records discovery publish results.
type DiscoveryRecorder interface {
	RecordDiscovery(ev DiscoveryEvent) error
}

// PublishRecorder records telemetry publishes.
type PublishRecorder interface {
	RecordPublish(ev PublishEvent) error
}

// HealthRecorder records device health samples.
type HealthRecorder interface {
	RecordHealth(s HealthSample) error
}

// StateRecorder tracks the current connection state.
type StateRecorder interface {
	RecordConnectionState(state string, connected bool) error
}

// NopRecorder implements every recorder interface with no-op methods.
type NopRecorder struct{}

func (NopRecorder) RecordConnectionAttempt(ConnectionAttempt) error { return nil }
func (NopRecorder) RecordDiscovery(DiscoveryEvent) error            { return nil }
func (NopRecorder) RecordPublish(PublishEvent) error                { return nil }
func (NopRecorder) RecordHealth(HealthSample) error                 { return nil }
func (NopRecorder) RecordConnectionState(string, bool) error        { return nil }
