package bridge

import (
	"encoding/json"

	"github.com/kilianp07/sfsbridge/core/metrics"
)

// Gateway publishes retained telemetry through the manager's session. Every
// method is a silent no-op while the session is down, so producers never
// check connectivity themselves.
type Gateway struct {
	conn *ConnectionManager
}

// NewGateway returns a gateway publishing through conn.
func NewGateway(conn *ConnectionManager) *Gateway {
	return &Gateway{conn: conn}
}

type valuePayload struct {
	Value int `json:"value"`
}

// PublishMovement publishes whether filament movement was detected.
func (g *Gateway) PublishMovement(detected bool) {
	g.publishValue(MetricMovement, boolValue(detected))
}

// PublishRunout publishes whether the filament ran out.
func (g *Gateway) PublishRunout(runout bool) {
	g.publishValue(MetricRunout, boolValue(runout))
}

// PublishConnectionState publishes whether the printer is reachable.
func (g *Gateway) PublishConnectionState(connected bool) {
	g.publishValue(MetricConnection, boolValue(connected))
}

// PublishPrinterStatus publishes the printer status string as is.
func (g *Gateway) PublishPrinterStatus(status string) {
	if !g.conn.IsConnected() {
		return
	}
	g.send("printer_status", g.conn.Topics().PrinterStatus(), []byte(status))
}

// PublishSystemHealth publishes heap usage and link signal strength as two
// independent messages. A failure of one does not affect the other.
func (g *Gateway) PublishSystemHealth(heapPct, signal int) {
	g.publishValue(MetricHeapUsage, heapPct)
	g.publishValue(MetricWiFiSignal, signal)
}

func (g *Gateway) publishValue(metric string, v int) {
	if !g.conn.IsConnected() {
		return
	}
	payload, err := json.Marshal(valuePayload{Value: v})
	if err != nil {
		g.conn.log.Errorf("encode %s: %v", metric, err)
		return
	}
	g.send(metric, g.conn.Topics().SensorState(metric), payload)
}

func (g *Gateway) send(metric, topic string, payload []byte) {
	err := g.conn.session.Publish(topic, payload, true)
	if err != nil {
		g.conn.log.Debugf("publish %s: %v", topic, err)
	}
	if pr, ok := g.conn.rec.(metrics.PublishRecorder); ok {
		ev := metrics.PublishEvent{Metric: metric, Topic: topic, Published: err == nil, Time: g.conn.now()}
		if rerr := pr.RecordPublish(ev); rerr != nil {
			g.conn.log.Debugf("record publish: %v", rerr)
		}
	}
}

func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
