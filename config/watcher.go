package config

import (
	"errors"
	"sync"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremqtt "github.com/kilianp07/sfsbridge/core/mqtt"
	"github.com/kilianp07/sfsbridge/infra/logger"
)

// SettingsWatcher reloads the mqtt section of the configuration file when it
// changes and publishes the new settings on Updates. Only the latest
// snapshot is kept if the consumer falls behind.
type SettingsWatcher struct {
	path string
	fp   *file.File
	out  chan coremqtt.Settings
	log  logger.Logger

	mu       sync.Mutex
	clientID string
}

// NewSettingsWatcher creates a watcher for path. When the file leaves the
// client id unset, the last applied id is reused, starting with the one in
// initial.
func NewSettingsWatcher(path string, initial coremqtt.Settings, log logger.Logger) (*SettingsWatcher, error) {
	if path == "" {
		return nil, errors.New("settings watcher: config path required")
	}
	if _, err := parserFor(path); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &SettingsWatcher{
		path:     path,
		fp:       file.Provider(path),
		out:      make(chan coremqtt.Settings, 1),
		log:      log,
		clientID: initial.ClientID,
	}, nil
}

// Updates delivers reloaded settings.
func (w *SettingsWatcher) Updates() <-chan coremqtt.Settings { return w.out }

// Start watches the file until Close.
func (w *SettingsWatcher) Start() error {
	return w.fp.Watch(func(_ interface{}, err error) {
		if err != nil {
			w.log.Warnf("config watch: %v", err)
			return
		}
		if err := w.Reload(); err != nil {
			w.log.Warnf("config reload rejected: %v", err)
		}
	})
}

// Reload reads the file once and publishes the mqtt settings if valid.
func (w *SettingsWatcher) Reload() error {
	s, err := w.read()
	if err != nil {
		return err
	}
	w.mu.Lock()
	select {
	case <-w.out:
	default:
	}
	w.out <- s
	w.mu.Unlock()
	w.log.Infof("mqtt settings reloaded from %s", w.path)
	return nil
}

func (w *SettingsWatcher) read() (coremqtt.Settings, error) {
	k, err := load(w.path)
	if err != nil {
		return coremqtt.Settings{}, err
	}
	var s coremqtt.Settings
	if err := k.UnmarshalWithConf("mqtt", &s, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return coremqtt.Settings{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if s.ClientID == "" {
		s.ClientID = w.clientID
	}
	setMQTTDefaults(&s)
	if err := s.Validate(); err != nil {
		return coremqtt.Settings{}, err
	}
	w.clientID = s.ClientID
	return s, nil
}

// Close stops watching.
func (w *SettingsWatcher) Close() error {
	return w.fp.Unwatch()
}
