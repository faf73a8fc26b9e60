package diag

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/kilianp07/sfsbridge/core/factory"
	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
	"github.com/kilianp07/sfsbridge/infra/logger"
)

const appendTimeout = 2 * time.Second

// Recorder turns bridge events into diagnostics records.
type Recorder struct {
	store Store
}

// NewRecorder wraps store.
func NewRecorder(store Store) *Recorder { return &Recorder{store: store} }

// Store returns the underlying store.
func (r *Recorder) Store() Store { return r.store }

func (r *Recorder) append(rec Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()
	return r.store.Append(ctx, rec)
}

// RecordConnectionAttempt stores one connection attempt.
func (r *Recorder) RecordConnectionAttempt(ev coremetrics.ConnectionAttempt) error {
	return r.append(Record{
		Time:       ev.Time,
		Kind:       KindConnection,
		Subject:    net.JoinHostPort(ev.Host, strconv.Itoa(ev.Port)),
		ClientID:   ev.ClientID,
		Success:    ev.Success,
		Code:       ev.FailureCode,
		Error:      ev.Error,
		DurationMS: ev.Duration.Milliseconds(),
	})
}

// RecordDiscovery stores one discovery entry result.
func (r *Recorder) RecordDiscovery(ev coremetrics.DiscoveryEvent) error {
	return r.append(Record{
		Time:    ev.Time,
		Kind:    KindDiscovery,
		Subject: ev.Sensor,
		Success: ev.Published,
		Skipped: ev.Skipped,
		Error:   ev.Error,
	})
}

// Close closes the store.
func (r *Recorder) Close() error { return r.store.Close() }

// Open builds a store from a recorder module configuration.
func Open(cfg factory.ModuleConfig) (Store, error) {
	var c struct {
		Path       string `json:"path"`
		MaxSizeMB  int    `json:"max_size_mb"`
		MaxBackups int    `json:"max_backups"`
		MaxAgeDays int    `json:"max_age_days"`
	}
	if err := factory.Decode(cfg.Conf, &c); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case "jsonl":
		if c.Path == "" {
			c.Path = "diagnostics.jsonl"
		}
		if c.MaxSizeMB == 0 {
			c.MaxSizeMB = 5
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	default:
		if c.Path == "" {
			c.Path = "diagnostics.db"
		}
		return NewSQLiteStore(c.Path)
	}
}

// init registers the diagnostics recorders.
func init() {
	for _, name := range []string{"sqlite", "jsonl"} {
		name := name
		_ = coremetrics.RegisterRecorder(name, func(conf map[string]any) (coremetrics.Recorder, error) {
			store, err := Open(factory.ModuleConfig{Type: name, Conf: conf})
			if err != nil {
				return nil, err
			}
			logger.New("diag").Infof("recording diagnostics with %s store", name)
			return NewRecorder(store), nil
		})
	}
}
