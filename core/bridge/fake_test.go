package bridge

import (
	"strings"
	"time"

	"github.com/kilianp07/sfsbridge/core/metrics"
	"github.com/kilianp07/sfsbridge/core/mqtt"
)

type published struct {
	topic    string
	payload  string
	retained bool
}

// fakeSession is an in-memory mqtt.Session.
type fakeSession struct {
	host    string
	port    int
	binds   int
	handler mqtt.MessageHandler

	connected   bool
	connectErr  error
	connects    []mqtt.Credentials
	disconnects int

	published  []published
	subscribed []string
	publishErr map[string]error
	serviced   int
	inbound    []mqtt.Message

	// dropAfterConfigs closes the session once that many discovery configs
	// were published. Zero disables it.
	dropAfterConfigs int
	configs          int
}

func newFakeSession() *fakeSession {
	return &fakeSession{publishErr: map[string]error{}}
}

func (f *fakeSession) SetServer(host string, port int) {
	f.host, f.port = host, port
	f.binds++
}

func (f *fakeSession) SetHandler(h mqtt.MessageHandler) { f.handler = h }

func (f *fakeSession) Connect(c mqtt.Credentials) error {
	f.connects = append(f.connects, c)
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeSession) Connected() bool { return f.connected }

func (f *fakeSession) Disconnect() {
	if f.connected {
		f.disconnects++
	}
	f.connected = false
}

func (f *fakeSession) Publish(topic string, payload []byte, retained bool) error {
	if !f.connected {
		return mqtt.ErrNotConnected
	}
	if err := f.publishErr[topic]; err != nil {
		return err
	}
	f.published = append(f.published, published{topic: topic, payload: string(payload), retained: retained})
	if strings.HasSuffix(topic, "/config") {
		f.configs++
		if f.dropAfterConfigs > 0 && f.configs == f.dropAfterConfigs {
			f.connected = false
		}
	}
	return nil
}

func (f *fakeSession) Subscribe(topic string) error {
	if !f.connected {
		return mqtt.ErrNotConnected
	}
	f.subscribed = append(f.subscribed, topic)
	return nil
}

func (f *fakeSession) Service() {
	f.serviced++
	msgs := f.inbound
	f.inbound = nil
	for _, m := range msgs {
		if f.handler != nil {
			f.handler(m)
		}
	}
}

func (f *fakeSession) topics() []string {
	out := make([]string, len(f.published))
	for i, p := range f.published {
		out[i] = p.topic
	}
	return out
}

func (f *fakeSession) reset() {
	f.published = nil
	f.subscribed = nil
	f.configs = 0
}

// fakeClock advances only when told to, or by the sleeps it records.
type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type linkFlag struct{ up bool }

func (l *linkFlag) IsLinkUp() bool { return l.up }

type recordingRecorder struct {
	attempts  []metrics.ConnectionAttempt
	discovery []metrics.DiscoveryEvent
	publishes []metrics.PublishEvent
	states    []string
}

func (r *recordingRecorder) RecordConnectionAttempt(ev metrics.ConnectionAttempt) error {
	r.attempts = append(r.attempts, ev)
	return nil
}

func (r *recordingRecorder) RecordDiscovery(ev metrics.DiscoveryEvent) error {
	r.discovery = append(r.discovery, ev)
	return nil
}

func (r *recordingRecorder) RecordPublish(ev metrics.PublishEvent) error {
	r.publishes = append(r.publishes, ev)
	return nil
}

func (r *recordingRecorder) RecordConnectionState(state string, _ bool) error {
	r.states = append(r.states, state)
	return nil
}

func scenarioSettings() mqtt.Settings {
	return mqtt.Settings{
		Enabled:     true,
		Host:        "broker.local",
		Port:        1883,
		ClientID:    "dev1",
		TopicPrefix: "homeassistant",
	}
}

type harness struct {
	sess  *fakeSession
	link  *linkFlag
	clock *fakeClock
	rec   *recordingRecorder
	mgr   *ConnectionManager
	gw    *Gateway
}

func newHarness(s mqtt.Settings, opts ...Option) *harness {
	h := &harness{
		sess:  newFakeSession(),
		link:  &linkFlag{up: true},
		clock: newFakeClock(),
		rec:   &recordingRecorder{},
	}
	opts = append([]Option{WithClock(h.clock.Now, h.clock.Sleep), WithRecorder(h.rec)}, opts...)
	h.mgr = NewConnectionManager(h.sess, h.link, s, opts...)
	h.mgr.Begin()
	h.gw = NewGateway(h.mgr)
	return h
}
