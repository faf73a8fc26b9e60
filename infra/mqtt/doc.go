// Package mqtt implements the core/mqtt Session contract with the Eclipse
// Paho client.
package mqtt
