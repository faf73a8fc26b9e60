package app

import (
	"runtime"

	"github.com/kilianp07/sfsbridge/core/bridge"
)

// TelemetryKind identifies a telemetry event.
type TelemetryKind int

const (
	TelemetryMovement TelemetryKind = iota
	TelemetryRunout
	TelemetryPrinterConnection
	TelemetryPrinterStatus
)

// Telemetry is a value reported by a producer goroutine, applied by the
// control loop.
type Telemetry struct {
	Kind   TelemetryKind
	Flag   bool
	Status string
}

func (t Telemetry) apply(g *bridge.Gateway) {
	switch t.Kind {
	case TelemetryMovement:
		g.PublishMovement(t.Flag)
	case TelemetryRunout:
		g.PublishRunout(t.Flag)
	case TelemetryPrinterConnection:
		g.PublishConnectionState(t.Flag)
	case TelemetryPrinterStatus:
		g.PublishPrinterStatus(t.Status)
	}
}

// ReportMovement queues a filament movement reading.
func (s *Service) ReportMovement(detected bool) {
	s.bus.Publish(Telemetry{Kind: TelemetryMovement, Flag: detected})
}

// ReportRunout queues a filament runout reading.
func (s *Service) ReportRunout(runout bool) {
	s.bus.Publish(Telemetry{Kind: TelemetryRunout, Flag: runout})
}

// ReportPrinterConnection queues the printer reachability.
func (s *Service) ReportPrinterConnection(connected bool) {
	s.bus.Publish(Telemetry{Kind: TelemetryPrinterConnection, Flag: connected})
}

// ReportPrinterStatus queues the printer status string.
func (s *Service) ReportPrinterStatus(status string) {
	s.bus.Publish(Telemetry{Kind: TelemetryPrinterStatus, Status: status})
}

// HeapUsage returns the share of the Go heap in use, in percent.
func HeapUsage() int {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapSys == 0 {
		return 0
	}
	return int(ms.HeapInuse * 100 / ms.HeapSys)
}
