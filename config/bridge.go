package config

import (
	"fmt"
	"time"
)

const defaultHealthIntervalSeconds = 30

// BridgeConfig tunes the control loop.
type BridgeConfig struct {
	// TickMS is the period of the control loop.
	TickMS int `json:"tick_ms" yaml:"tick_ms"`
	// HealthIntervalSeconds is the system health publish period. Unset
	// means 30, zero or negative disables health publishing.
	HealthIntervalSeconds *int `json:"health_interval_seconds" yaml:"health_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *BridgeConfig) SetDefaults() {
	if c.TickMS == 0 {
		c.TickMS = 100
	}
	if c.HealthIntervalSeconds == nil {
		iv := defaultHealthIntervalSeconds
		c.HealthIntervalSeconds = &iv
	}
}

// Validate checks the loop timings.
func (c BridgeConfig) Validate() error {
	if c.TickMS < 10 {
		return fmt.Errorf("bridge tick_ms must be >= 10, got %d", c.TickMS)
	}
	return nil
}

// Tick returns the control loop period.
func (c BridgeConfig) Tick() time.Duration { return time.Duration(c.TickMS) * time.Millisecond }

// HealthInterval returns the health publish period, zero when disabled.
func (c BridgeConfig) HealthInterval() time.Duration {
	if c.HealthIntervalSeconds == nil || *c.HealthIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(*c.HealthIntervalSeconds) * time.Second
}
