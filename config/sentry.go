package config

import "fmt"

// SentryConfig defines settings for Sentry error monitoring. An empty DSN
// disables reporting.
type SentryConfig struct {
	DSN              string  `json:"dsn" yaml:"dsn,omitempty"`
	Environment      string  `json:"environment" yaml:"environment,omitempty"`
	TracesSampleRate float64 `json:"traces_sample_rate" yaml:"traces_sample_rate,omitempty"`
	Release          string  `json:"release" yaml:"release,omitempty"`
}

// Validate checks the sample rate bounds.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry traces_sample_rate %v out of [0,1]", c.TracesSampleRate)
	}
	return nil
}
