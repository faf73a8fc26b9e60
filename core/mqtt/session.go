package mqtt

// Message is an inbound publish received on a subscribed topic.
type Message struct {
	Topic   string
	Payload []byte
}

// MessageHandler receives inbound messages. It is only ever called from
// Session.Service, on the goroutine that owns the session.
type MessageHandler func(Message)

// Credentials select between an authenticated and an anonymous CONNECT.
// Username and Password are empty for anonymous sessions.
type Credentials struct {
	ClientID string
	Username string
	Password string
}

// Session is one logical broker session. Implementations must bound every
// blocking call: Connect by the transport connect timeout, Publish by a
// write timeout, Service must not block at all.
type Session interface {
	// SetServer binds the session to a broker endpoint for later connects.
	SetServer(host string, port int)
	// SetHandler installs the inbound message handler.
	SetHandler(h MessageHandler)
	// Connect performs one connection attempt. Broker rejections are
	// reported as *ConnectError.
	Connect(c Credentials) error
	// Connected reports whether the session is currently usable.
	Connected() bool
	// Disconnect closes the session gracefully. It is a no-op when not connected.
	Disconnect()
	// Publish sends one QoS 0 message.
	Publish(topic string, payload []byte, retained bool) error
	// Subscribe registers interest in topic at QoS 0.
	Subscribe(topic string) error
	// Service delivers pending inbound messages to the handler, in arrival
	// order, and lets the transport flush keep-alive traffic.
	Service()
}
