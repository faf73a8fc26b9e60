package mqtt

import (
	"net"
	"strconv"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremqtt "github.com/kilianp07/sfsbridge/core/mqtt"
	"github.com/kilianp07/sfsbridge/infra/logger"
)

// Config holds transport tuning for the Paho session. Zero values fall back
// to the defaults below.
type Config struct {
	ConnectTimeoutMS int `json:"connect_timeout_ms" yaml:"connect_timeout_ms"`
	PublishTimeoutMS int `json:"publish_timeout_ms" yaml:"publish_timeout_ms"`
	KeepAliveSeconds int `json:"keep_alive_seconds" yaml:"keep_alive_seconds"`
	InboundQueue     int `json:"inbound_queue" yaml:"inbound_queue"`
}

const (
	defaultConnectTimeout = 5 * time.Second
	defaultPublishTimeout = 2 * time.Second
	defaultKeepAlive      = 15 * time.Second
	defaultInboundQueue   = 16
	disconnectQuiesceMS   = 250
)

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeoutMS <= 0 {
		return defaultConnectTimeout
	}
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

func (c Config) publishTimeout() time.Duration {
	if c.PublishTimeoutMS <= 0 {
		return defaultPublishTimeout
	}
	return time.Duration(c.PublishTimeoutMS) * time.Millisecond
}

func (c Config) keepAlive() time.Duration {
	if c.KeepAliveSeconds <= 0 {
		return defaultKeepAlive
	}
	return time.Duration(c.KeepAliveSeconds) * time.Second
}

func (c Config) inboundQueue() int {
	if c.InboundQueue <= 0 {
		return defaultInboundQueue
	}
	return c.InboundQueue
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoSession implements core/mqtt.Session on top of Eclipse Paho. Paho's
// own reconnect logic is disabled: the bridge decides when to reconnect.
// Inbound messages are handed from Paho's goroutine to the owner through a
// bounded queue that Service drains.
type PahoSession struct {
	cfg     Config
	host    string
	port    int
	handler coremqtt.MessageHandler
	cli     pahoClient
	inbound chan coremqtt.Message
	dropped atomic.Int64
	log     logger.Logger
}

// NewPahoSession creates an unbound session.
func NewPahoSession(cfg Config, log logger.Logger) *PahoSession {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &PahoSession{
		cfg:     cfg,
		inbound: make(chan coremqtt.Message, cfg.inboundQueue()),
		log:     log,
	}
}

// SetServer records the broker endpoint used by the next Connect.
func (s *PahoSession) SetServer(host string, port int) {
	s.host = host
	s.port = port
}

// SetHandler installs the inbound message handler.
func (s *PahoSession) SetHandler(h coremqtt.MessageHandler) { s.handler = h }

// BrokerURL returns the Paho broker URL for the bound endpoint.
func (s *PahoSession) BrokerURL() string {
	return "tcp://" + net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// NewClientOptions builds the Paho options for one connection attempt.
func (s *PahoSession) NewClientOptions(c coremqtt.Credentials) *paho.ClientOptions {
	opts := paho.NewClientOptions().AddBroker(s.BrokerURL()).SetClientID(c.ClientID)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(s.cfg.connectTimeout())
	opts.SetWriteTimeout(s.cfg.publishTimeout())
	opts.SetKeepAlive(s.cfg.keepAlive())
	opts.SetPingTimeout(s.cfg.connectTimeout())
	if c.Username != "" {
		opts.SetUsername(c.Username)
		opts.SetPassword(c.Password)
	}
	opts.SetDefaultPublishHandler(s.enqueue)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.log.Warnf("connection lost: %v", err)
	})
	return opts
}

// Connect performs one bounded connection attempt.
func (s *PahoSession) Connect(c coremqtt.Credentials) error {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(disconnectQuiesceMS)
	}
	s.cli = newMQTTClient(s.NewClientOptions(c))
	token := s.cli.Connect()
	if !token.WaitTimeout(s.cfg.connectTimeout() + time.Second) {
		s.cli.Disconnect(0)
		return &coremqtt.ConnectError{Err: coremqtt.ErrConnectTimeout}
	}
	if err := token.Error(); err != nil {
		var code byte
		if ct, ok := token.(*paho.ConnectToken); ok {
			code = ct.ReturnCode()
		}
		return &coremqtt.ConnectError{Code: code, Err: err}
	}
	return nil
}

// Connected reports whether the underlying client holds an open connection.
func (s *PahoSession) Connected() bool {
	return s.cli != nil && s.cli.IsConnected()
}

// Disconnect closes the connection, letting in-flight work finish briefly.
func (s *PahoSession) Disconnect() {
	if s.Connected() {
		s.cli.Disconnect(disconnectQuiesceMS)
	}
}

// Publish sends one QoS 0 message and waits at most the publish timeout.
func (s *PahoSession) Publish(topic string, payload []byte, retained bool) error {
	if !s.Connected() {
		return coremqtt.ErrNotConnected
	}
	token := s.cli.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(s.cfg.publishTimeout()) {
		return coremqtt.ErrPublishTimeout
	}
	return token.Error()
}

// Subscribe subscribes at QoS 0 and waits at most the publish timeout.
func (s *PahoSession) Subscribe(topic string) error {
	if !s.Connected() {
		return coremqtt.ErrNotConnected
	}
	token := s.cli.Subscribe(topic, 0, s.enqueue)
	if !token.WaitTimeout(s.cfg.publishTimeout()) {
		return coremqtt.ErrPublishTimeout
	}
	return token.Error()
}

// Service hands queued inbound messages to the handler in arrival order. It
// only drains what was queued when called and never blocks.
func (s *PahoSession) Service() {
	if n := s.dropped.Swap(0); n > 0 {
		s.log.Warnf("dropped %d inbound messages, queue full", n)
	}
	for n := len(s.inbound); n > 0; n-- {
		select {
		case m := <-s.inbound:
			if s.handler != nil {
				s.handler(m)
			}
		default:
			return
		}
	}
}

// enqueue runs on a Paho goroutine.
func (s *PahoSession) enqueue(_ paho.Client, msg paho.Message) {
	payload := append([]byte(nil), msg.Payload()...)
	select {
	case s.inbound <- coremqtt.Message{Topic: msg.Topic(), Payload: payload}:
	default:
		s.dropped.Add(1)
	}
}
