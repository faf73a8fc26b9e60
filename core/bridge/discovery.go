package bridge

import (
	"encoding/json"
	"time"

	"github.com/kilianp07/sfsbridge/core/metrics"
)

// DiscoveryPacing is the wait between two discovery publishes. Constrained
// brokers drop the connection when retained configs arrive in a burst.
const DiscoveryPacing = 500 * time.Millisecond

// Discovery payload constants shared by every sensor.
const (
	ValueTemplate  = "{{ value_json.value}}"
	StateClass     = "measurement"
	EntityCategory = "diagnostic"
	DeviceModel    = "CC SFS"
	DeviceMaker    = "Elegoo"
)

// DeviceInfo is the device registry block. All sensors of one bridge share
// it so Home Assistant groups them under one device.
type DeviceInfo struct {
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
	Identifiers  []string `json:"identifiers"`
}

// DiscoveryConfig is the Home Assistant MQTT sensor discovery payload.
// Field order is the wire order.
type DiscoveryConfig struct {
	DeviceClass       string     `json:"device_class,omitempty"`
	Name              string     `json:"name"`
	StateTopic        string     `json:"state_topic"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	ValueTemplate     string     `json:"value_template,omitempty"`
	UniqueID          string     `json:"unique_id"`
	StateClass        string     `json:"state_class"`
	AvailabilityTopic string     `json:"availability_topic"`
	DefaultEntityID   string     `json:"default_entity_id"`
	EntityCategory    string     `json:"entity_category"`
	Device            DeviceInfo `json:"device"`
	Icon              string     `json:"icon,omitempty"`
}

// BuildDiscoveryConfig derives the discovery payload of s.
func BuildDiscoveryConfig(t Topics, s Sensor) DiscoveryConfig {
	uid := t.UniqueID(s.Key)
	return DiscoveryConfig{
		DeviceClass:       s.DeviceClass,
		Name:              s.Name,
		StateTopic:        t.SensorState(s.Key),
		UnitOfMeasurement: s.Unit,
		ValueTemplate:     ValueTemplate,
		UniqueID:          uid,
		StateClass:        StateClass,
		AvailabilityTopic: t.Availability(),
		DefaultEntityID:   "sensor." + uid,
		EntityCategory:    EntityCategory,
		Device: DeviceInfo{
			Name:         t.ClientID,
			Model:        DeviceModel,
			Manufacturer: DeviceMaker,
			Identifiers:  []string{t.ClientID},
		},
		Icon: s.Icon,
	}
}

// DiscoveryResult is the outcome of one sensor announcement.
type DiscoveryResult struct {
	Sensor    string
	Topic     string
	Published bool
	Skipped   bool
	Err       error
}

// Discovery announces the Sensors table through the manager's session.
type Discovery struct {
	conn *ConnectionManager
}

func newDiscovery(conn *ConnectionManager) *Discovery {
	return &Discovery{conn: conn}
}

// Publish announces every sensor, servicing the session and pacing between
// entries. Entries reached after the session dropped are skipped and
// reported as such; nothing is retried until the next connection.
func (d *Discovery) Publish() []DiscoveryResult {
	c := d.conn
	t := c.Topics()
	results := make([]DiscoveryResult, 0, len(Sensors))
	if !c.IsConnected() {
		return results
	}
	c.log.Infof("Starting Home Assistant discovery config publishing...")
	for i, s := range Sensors {
		if !c.IsConnected() {
			res := DiscoveryResult{Sensor: s.Key, Topic: t.SensorConfig(s.Key), Skipped: true}
			d.record(res)
			results = append(results, res)
			continue
		}
		res := d.publishSensor(t, s)
		d.record(res)
		results = append(results, res)
		c.session.Service()
		if i < len(Sensors)-1 {
			c.sleep(DiscoveryPacing)
		}
	}
	c.log.Infof("Completed Home Assistant discovery config publishing")
	return results
}

func (d *Discovery) publishSensor(t Topics, s Sensor) DiscoveryResult {
	c := d.conn
	res := DiscoveryResult{Sensor: s.Key, Topic: t.SensorConfig(s.Key)}
	payload, err := json.Marshal(BuildDiscoveryConfig(t, s))
	if err != nil {
		res.Err = err
		c.log.Errorf("encode discovery config %s: %v", s.Key, err)
		return res
	}
	preview := payload
	if len(preview) > 200 {
		preview = preview[:200]
	}
	c.log.Debugw("publishing HA config", map[string]any{
		"sensor":  s.Key,
		"topic":   res.Topic,
		"length":  len(payload),
		"payload": string(preview),
	})
	if err := c.session.Publish(res.Topic, payload, true); err != nil {
		res.Err = err
		c.log.Warnf("Publish result for %s: FAILED (state: %s): %v", s.Key, c.state, err)
		return res
	}
	res.Published = true
	c.log.Debugf("Publish result for %s: SUCCESS", s.Key)
	return res
}

func (d *Discovery) record(res DiscoveryResult) {
	dr, ok := d.conn.rec.(metrics.DiscoveryRecorder)
	if !ok {
		return
	}
	ev := metrics.DiscoveryEvent{
		Sensor:    res.Sensor,
		Topic:     res.Topic,
		Published: res.Published,
		Skipped:   res.Skipped,
		Time:      d.conn.now(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	if err := dr.RecordDiscovery(ev); err != nil {
		d.conn.log.Debugf("record discovery: %v", err)
	}
}
