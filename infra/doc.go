// Package infra contains technical adapters such as the MQTT session,
// metrics recorders and the diagnostics store. These packages depend only on
// the interfaces defined in the core packages.
package infra
