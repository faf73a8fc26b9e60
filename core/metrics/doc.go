// Package metrics defines the events the bridge reports for diagnostics
// (connection attempts, discovery results, telemetry publishes, health
// samples) and the recorder interfaces consuming them. Implementations are
// registered by infra/metrics and infra/diag and built from configuration
// with NewRecorder; several recorders are combined with NewMultiRecorder.
package metrics
