package bridge

// Topics derives every topic the bridge publishes or subscribes to from the
// topic prefix and client identity.
type Topics struct {
	Prefix   string
	ClientID string
}

// Status carries the retained "online" marker of the bridge.
func (t Topics) Status() string { return t.Prefix + "/status" }

// Availability is the per-device availability topic referenced by every
// discovery payload.
func (t Topics) Availability() string { return t.Prefix + "/" + t.ClientID + "_death" }

// Command is subscribed for inbound commands.
func (t Topics) Command() string { return t.Prefix + "/command" }

// PrinterStatus carries the raw printer status string.
func (t Topics) PrinterStatus() string { return t.Prefix + "/printer/status" }

// UniqueID is the Home Assistant unique id of a metric.
func (t Topics) UniqueID(metric string) string { return t.ClientID + "_" + metric }

// SensorState is the state topic of a metric.
func (t Topics) SensorState(metric string) string {
	return t.Prefix + "/sensor/" + t.UniqueID(metric) + "/state"
}

// SensorConfig is the discovery topic of a metric.
func (t Topics) SensorConfig(metric string) string {
	return t.Prefix + "/sensor/" + t.UniqueID(metric) + "/config"
}
