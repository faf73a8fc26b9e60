// Package bridge implements the MQTT side of the filament sensor bridge:
// the reconnect state machine (ConnectionManager), retained telemetry
// publishing (Gateway) and the paced Home Assistant discovery sequence
// (Discovery).
//
// Everything in this package runs on a single control goroutine driven by
// periodic calls to ConnectionManager.Tick. No locking is done; callers
// must not share a manager between goroutines.
package bridge
