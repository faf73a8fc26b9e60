package bridge

import (
	"time"

	"github.com/kilianp07/sfsbridge/core/link"
	"github.com/kilianp07/sfsbridge/core/logger"
	"github.com/kilianp07/sfsbridge/core/metrics"
	"github.com/kilianp07/sfsbridge/core/mqtt"
)

// ReconnectInterval is the minimum time between two connection attempts,
// measured from attempt start to attempt start.
const ReconnectInterval = 30 * time.Second

const onlinePayload = "online"

// CommandHandler receives messages arriving on the command topic.
type CommandHandler func(mqtt.Message)

// ConnectionManager owns the broker session and runs the reconnect state
// machine. It is driven by Tick and reconfigured by UpdateSettings.
type ConnectionManager struct {
	session mqtt.Session
	link    link.Monitor
	log     logger.Logger
	rec     metrics.Recorder

	settings mqtt.Settings
	state    State

	attempted   bool
	lastAttempt time.Time
	lastErr     error
	lastCode    int

	discovery *Discovery
	onCommand CommandHandler
	now       func() time.Time
	sleep     func(time.Duration)
}

// Option customises a ConnectionManager.
type Option func(*ConnectionManager)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *ConnectionManager) { m.log = l }
}

// WithRecorder sets the diagnostics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *ConnectionManager) { m.rec = r }
}

// WithCommandHandler installs a handler for command topic messages. Without
// one, commands are only logged.
func WithCommandHandler(h CommandHandler) Option {
	return func(m *ConnectionManager) { m.onCommand = h }
}

// WithClock replaces time.Now and time.Sleep. The sleep function is used for
// discovery pacing.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(m *ConnectionManager) {
		if now != nil {
			m.now = now
		}
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// NewConnectionManager creates a manager for session using the initial
// settings snapshot. Begin must be called before the first Tick.
func NewConnectionManager(session mqtt.Session, lm link.Monitor, settings mqtt.Settings, opts ...Option) *ConnectionManager {
	m := &ConnectionManager{
		session:  session,
		link:     lm,
		log:      logger.NopLogger{},
		rec:      metrics.NopRecorder{},
		settings: settings,
		lastCode: -1,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, o := range opts {
		o(m)
	}
	if settings.Active() {
		m.state = StateIdle
	}
	m.discovery = newDiscovery(m)
	return m
}

// Begin binds the session to the configured broker and installs the inbound
// message handler. Calling it again re-binds to the current host and port.
func (m *ConnectionManager) Begin() {
	m.session.SetServer(m.settings.Host, m.settings.Port)
	m.session.SetHandler(m.handleMessage)
}

// Tick advances the state machine by one step. It never blocks longer than
// a single bounded connection attempt plus discovery.
func (m *ConnectionManager) Tick() {
	if !m.settings.Active() {
		m.setState(StateDisabled)
		return
	}
	if m.session.Connected() {
		m.setState(StateConnected)
		m.session.Service()
		return
	}
	if m.state == StateConnected {
		m.log.Warnf("MQTT connection to %s lost", m.settings.Endpoint())
		m.setState(StateIdle)
	}
	if !m.link.IsLinkUp() {
		return
	}
	now := m.now()
	if m.attempted && now.Sub(m.lastAttempt) < ReconnectInterval {
		return
	}
	m.attempted = true
	m.lastAttempt = now
	if m.reconnect() {
		m.log.Infof("MQTT connected successfully")
	} else {
		m.log.Infof("MQTT connection failed, will retry in %s", ReconnectInterval)
	}
}

// UpdateSettings applies a new settings snapshot and reports whether any
// field changed. A change closes a live session; the next Tick reconnects
// with the new settings once the reconnect interval allows it.
func (m *ConnectionManager) UpdateSettings(s mqtt.Settings) bool {
	changed := !m.settings.Equal(s)
	m.settings = s
	if !changed {
		return false
	}
	if m.session.Connected() {
		m.session.Disconnect()
	}
	if s.Active() {
		m.session.SetServer(s.Host, s.Port)
		m.setState(StateIdle)
		m.log.Infof("MQTT settings updated, reconnecting...")
	} else {
		m.setState(StateDisabled)
		m.log.Infof("MQTT settings updated, bridge inactive")
	}
	return true
}

// reconnect performs one connection attempt and, on success, announces the
// device and runs discovery.
func (m *ConnectionManager) reconnect() bool {
	s := m.settings
	if !s.Active() || !m.link.IsLinkUp() {
		return false
	}
	m.setState(StateConnecting)
	m.log.Infof("Attempting MQTT connection to %s", s.Endpoint())

	creds := mqtt.Credentials{ClientID: s.ClientID}
	if s.HasCredentials() {
		creds.Username = s.Username
		creds.Password = s.Password
	}
	start := m.now()
	err := m.session.Connect(creds)
	attempt := metrics.ConnectionAttempt{
		Host:        s.Host,
		Port:        s.Port,
		ClientID:    s.ClientID,
		Success:     err == nil,
		FailureCode: mqtt.FailureCode(err),
		Duration:    m.now().Sub(start),
		Time:        start,
	}
	if err != nil {
		attempt.Error = err.Error()
	}
	if rerr := m.rec.RecordConnectionAttempt(attempt); rerr != nil {
		m.log.Debugf("record connection attempt: %v", rerr)
	}
	if err != nil {
		m.lastErr = err
		m.lastCode = attempt.FailureCode
		m.setState(StateFailed)
		m.log.Warnf("MQTT connection failed, state: %d: %v", m.lastCode, err)
		return false
	}
	m.lastErr = nil
	m.setState(StateConnected)

	t := m.Topics()
	m.publishMarker(t.Status())
	m.publishMarker(t.Availability())
	if err := m.session.Subscribe(t.Command()); err != nil {
		m.log.Warnf("subscribe %s: %v", t.Command(), err)
	}

	m.log.Infof("Publishing Home Assistant discovery configs...")
	m.discovery.Publish()

	m.log.Infof("MQTT connected as %s", s.ClientID)
	return true
}

func (m *ConnectionManager) publishMarker(topic string) {
	if err := m.session.Publish(topic, []byte(onlinePayload), true); err != nil {
		m.log.Warnf("publish %s: %v", topic, err)
	}
}

func (m *ConnectionManager) handleMessage(msg mqtt.Message) {
	m.log.Infof("MQTT message received: %s = %s", msg.Topic, string(msg.Payload))
	if msg.Topic != m.Topics().Command() {
		return
	}
	if m.onCommand != nil {
		m.onCommand(msg)
	}
}

func (m *ConnectionManager) setState(s State) {
	if m.state == s {
		return
	}
	m.log.Debugw("mqtt state change", map[string]any{"from": m.state.String(), "to": s.String()})
	m.state = s
	if sr, ok := m.rec.(metrics.StateRecorder); ok {
		if err := sr.RecordConnectionState(s.String(), s == StateConnected); err != nil {
			m.log.Debugf("record state: %v", err)
		}
	}
}

// IsConnected reports whether the bridge is enabled and holds a live session.
func (m *ConnectionManager) IsConnected() bool {
	return m.settings.Enabled && m.session.Connected()
}

// Status classifies the connection for display. A down link is reported
// even while enabled, before any broker state.
func (m *ConnectionManager) Status() Status {
	ep := m.settings.Endpoint()
	switch {
	case !m.settings.Enabled:
		return Status{Kind: StatusDisabled}
	case !m.link.IsLinkUp():
		return Status{Kind: StatusLinkDown, Endpoint: ep}
	case m.session.Connected():
		return Status{Kind: StatusConnected, Endpoint: ep}
	default:
		return Status{Kind: StatusDisconnected, Endpoint: ep}
	}
}

// State returns the state machine position.
func (m *ConnectionManager) State() State { return m.state }

// Settings returns the current settings snapshot.
func (m *ConnectionManager) Settings() mqtt.Settings { return m.settings }

// Topics returns the topic set for the current settings.
func (m *ConnectionManager) Topics() Topics {
	return Topics{Prefix: m.settings.TopicPrefix, ClientID: m.settings.ClientID}
}

// LastError returns the error of the last failed attempt, or nil after a
// successful one.
func (m *ConnectionManager) LastError() error { return m.lastErr }

// LastFailureCode returns the broker failure code of the last failed
// attempt, -1 when unknown.
func (m *ConnectionManager) LastFailureCode() int { return m.lastCode }

// LastAttempt returns the start time of the last attempt and whether any
// attempt was made.
func (m *ConnectionManager) LastAttempt() (time.Time, bool) { return m.lastAttempt, m.attempted }

// Discovery returns the discovery publisher bound to this manager.
func (m *ConnectionManager) Discovery() *Discovery { return m.discovery }

// Close disconnects a live session.
func (m *ConnectionManager) Close() {
	if m.session.Connected() {
		m.session.Disconnect()
	}
	if m.settings.Active() {
		m.setState(StateIdle)
	}
}
