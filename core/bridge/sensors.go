package bridge

// Metric keys. They appear in state topics, discovery topics and unique ids.
const (
	MetricMovement   = "movement"
	MetricRunout     = "runout"
	MetricConnection = "connection"
	MetricHeapUsage  = "heap_usage"
	MetricWiFiSignal = "wifi_signal"
)

// Sensor is a static description of one published metric.
type Sensor struct {
	Key         string
	Name        string
	DeviceClass string
	Unit        string
	Icon        string
}

// Sensors is announced to Home Assistant in this order.
var Sensors = []Sensor{
	{Key: MetricMovement, Name: "Movement Sensor", Icon: "mdi:motion-sensor"},
	{Key: MetricRunout, Name: "Filament Runout", Icon: "mdi:printer-3d-nozzle-alert"},
	{Key: MetricConnection, Name: "Printer Connection", Icon: "mdi:printer"},
	{Key: MetricHeapUsage, Name: "Heap Usage", Unit: "%", Icon: "mdi:memory"},
	{Key: MetricWiFiSignal, Name: "WiFi Signal", DeviceClass: "signal_strength", Unit: "dBm", Icon: "mdi:wifi"},
}
