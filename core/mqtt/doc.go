// Package mqtt defines the broker session contract used by the bridge core,
// the connection settings snapshot and the errors a session reports. The
// Paho-backed implementation lives in infra/mqtt.
package mqtt
