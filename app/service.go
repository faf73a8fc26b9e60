package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/sfsbridge/config"
	"github.com/kilianp07/sfsbridge/core/bridge"
	corelink "github.com/kilianp07/sfsbridge/core/link"
	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
	coremon "github.com/kilianp07/sfsbridge/core/monitoring"
	coremqtt "github.com/kilianp07/sfsbridge/core/mqtt"
	_ "github.com/kilianp07/sfsbridge/infra/diag"
	"github.com/kilianp07/sfsbridge/infra/link"
	"github.com/kilianp07/sfsbridge/infra/logger"
	"github.com/kilianp07/sfsbridge/infra/metrics"
	"github.com/kilianp07/sfsbridge/infra/monitoring"
	"github.com/kilianp07/sfsbridge/infra/mqtt"
	"github.com/kilianp07/sfsbridge/internal/eventbus"
)

const telemetryBuffer = 32

// Service runs the bridge control loop: it ticks the connection manager,
// applies settings reloads and forwards telemetry to the gateway. Every
// bridge call happens on the goroutine running Run.
type Service struct {
	cfg     *config.Config
	Manager *bridge.ConnectionManager
	Gateway *bridge.Gateway

	session coremqtt.Session
	link    corelink.Monitor
	rec     coremetrics.Recorder
	mon     coremon.Monitor
	bus     *eventbus.TypedBus[Telemetry]
	events  <-chan Telemetry
	watcher *config.SettingsWatcher
	updates <-chan coremqtt.Settings
	heap    func() int
	onCmd   bridge.CommandHandler
	bopts   []bridge.Option
	log     logger.Logger
	status  string
	cfgPath string
}

// Option customises a Service.
type Option func(*Service)

// WithSession replaces the Paho session.
func WithSession(s coremqtt.Session) Option { return func(svc *Service) { svc.session = s } }

// WithLinkMonitor replaces the configured link monitor.
func WithLinkMonitor(m corelink.Monitor) Option { return func(svc *Service) { svc.link = m } }

// WithRecorder replaces the configured recorders.
func WithRecorder(r coremetrics.Recorder) Option { return func(svc *Service) { svc.rec = r } }

// WithMonitor sets the error reporting monitor.
func WithMonitor(m coremon.Monitor) Option { return func(svc *Service) { svc.mon = m } }

// WithSettingsUpdates feeds settings snapshots into the loop.
func WithSettingsUpdates(ch <-chan coremqtt.Settings) Option {
	return func(svc *Service) { svc.updates = ch }
}

// WithConfigWatch reloads the mqtt section whenever the file at path changes.
func WithConfigWatch(path string) Option { return func(svc *Service) { svc.cfgPath = path } }

// WithHeapSampler replaces the heap usage probe.
func WithHeapSampler(f func() int) Option { return func(svc *Service) { svc.heap = f } }

// WithCommandHandler handles messages on the command topic.
func WithCommandHandler(h bridge.CommandHandler) Option {
	return func(svc *Service) { svc.onCmd = h }
}

// WithBridgeOptions passes extra options to the connection manager.
func WithBridgeOptions(opts ...bridge.Option) Option {
	return func(svc *Service) { svc.bopts = append(svc.bopts, opts...) }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{
		cfg:  cfg,
		heap: HeapUsage,
		log:  logger.New("service"),
	}
	for _, o := range opts {
		o(svc)
	}

	var err error
	if svc.session == nil {
		svc.session = mqtt.NewPahoSession(cfg.Session, logger.New("mqtt"))
	}
	if svc.link == nil {
		if svc.link, err = link.New(cfg.Link); err != nil {
			return nil, fmt.Errorf("link monitor: %w", err)
		}
	}
	if svc.rec == nil {
		if svc.rec, err = coremetrics.NewRecorder(cfg.Metrics); err != nil {
			return nil, fmt.Errorf("recorder: %w", err)
		}
	}
	if svc.mon == nil {
		if svc.mon, err = monitoring.NewSentryMonitor(cfg.Sentry, cfg.MQTT.ClientID); err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
	}
	if svc.cfgPath != "" && svc.updates == nil {
		svc.watcher, err = config.NewSettingsWatcher(svc.cfgPath, cfg.MQTT, logger.New("config"))
		if err != nil {
			return nil, fmt.Errorf("config watcher: %w", err)
		}
		svc.updates = svc.watcher.Updates()
	}

	mopts := []bridge.Option{
		bridge.WithLogger(logger.New("bridge")),
		bridge.WithRecorder(svc.rec),
	}
	if svc.onCmd != nil {
		mopts = append(mopts, bridge.WithCommandHandler(svc.onCmd))
	}
	mopts = append(mopts, svc.bopts...)
	svc.Manager = bridge.NewConnectionManager(svc.session, svc.link, cfg.MQTT, mopts...)
	svc.Gateway = bridge.NewGateway(svc.Manager)
	svc.bus = eventbus.NewTypedWithBuffer[Telemetry](telemetryBuffer)
	svc.events = svc.bus.Subscribe()
	return svc, nil
}

// Run drives the control loop until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer s.mon.Recover()

	s.Manager.Begin()
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
				s.mon.CaptureException(err, map[string]string{"component": "prom-server"})
			}
		}()
	}
	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.log.Warnf("config watch disabled: %v", err)
		}
	}

	tick := time.NewTicker(s.cfg.Bridge.Tick())
	defer tick.Stop()
	var healthC <-chan time.Time
	if iv := s.cfg.Bridge.HealthInterval(); iv > 0 {
		health := time.NewTicker(iv)
		defer health.Stop()
		healthC = health.C
	}

	s.step()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			s.step()
		case <-healthC:
			s.publishHealth()
		case ev, ok := <-s.events:
			if !ok {
				s.events = nil
				continue
			}
			ev.apply(s.Gateway)
		case st := <-s.updates:
			if s.Manager.UpdateSettings(st) {
				s.log.Infof("applied new mqtt settings for %s", st.Endpoint())
			}
		}
	}
}

func (s *Service) step() {
	s.Manager.Tick()
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("dropped %d telemetry events", n)
	}
	if st := s.Manager.Status().String(); st != s.status {
		s.log.Infof("MQTT status: %s", st)
		s.status = st
	}
}

func (s *Service) publishHealth() {
	heap := s.heap()
	signal := 0
	if sr, ok := s.link.(corelink.SignalReporter); ok {
		if dbm, ok := sr.SignalStrength(); ok {
			signal = dbm
		}
	}
	s.Gateway.PublishSystemHealth(heap, signal)
	if hr, ok := s.rec.(coremetrics.HealthRecorder); ok {
		if err := hr.RecordHealth(coremetrics.HealthSample{HeapUsagePct: heap, SignalDBm: signal, Time: time.Now()}); err != nil {
			s.log.Debugf("record health: %v", err)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Manager.Close()
	s.bus.Close()
	var first error
	if s.watcher != nil {
		first = s.watcher.Close()
	}
	if c, ok := s.rec.(io.Closer); ok {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.mon.Flush(2 * time.Second)
	return first
}
