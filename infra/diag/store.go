// Package diag persists connection and discovery diagnostics so that the
// history of a device can be inspected after the fact.
package diag

import (
	"context"
	"time"
)

// Record kinds.
const (
	KindConnection = "connection_attempt"
	KindDiscovery  = "discovery"
)

// Record is one persisted diagnostics event.
type Record struct {
	Time time.Time `json:"time"`
	Kind string    `json:"kind"`
	// Subject is the broker endpoint for connection attempts and the sensor
	// key for discovery entries.
	Subject    string `json:"subject"`
	ClientID   string `json:"client_id,omitempty"`
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	Code       int    `json:"code"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Query filters stored records. Zero values match everything; a positive
// Limit keeps only the most recent matches.
type Query struct {
	Kind  string
	Since time.Time
	Limit int
}

func (q Query) match(r Record) bool {
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if !q.Since.IsZero() && r.Time.Before(q.Since) {
		return false
	}
	return true
}

// Store persists records and supports querying them in time order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Recent returns the last n connection attempts from s, oldest first.
func Recent(ctx context.Context, s Store, n int) ([]Record, error) {
	return s.Query(ctx, Query{Kind: KindConnection, Limit: n})
}
