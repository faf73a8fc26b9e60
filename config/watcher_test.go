package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/sfsbridge/core/mqtt"
)

func TestSettingsWatcher_ReloadKeepsClientID(t *testing.T) {
	path := writeConfig(t, "config.yaml", "mqtt:\n  enabled: true\n  host: a\n")
	w, err := NewSettingsWatcher(path, coremqtt.Settings{ClientID: "cc_sfs_12345678"}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Reload())
	s := <-w.Updates()
	assert.Equal(t, "a", s.Host)
	assert.Equal(t, "cc_sfs_12345678", s.ClientID)
	assert.Equal(t, DefaultPort, s.Port)
}

func TestSettingsWatcher_KeepsLatestOnly(t *testing.T) {
	path := writeConfig(t, "config.yaml", "mqtt:\n  enabled: true\n  host: a\n")
	w, err := NewSettingsWatcher(path, coremqtt.Settings{ClientID: "dev"}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Reload())
	require.NoError(t, os.WriteFile(path, []byte("mqtt:\n  enabled: true\n  host: b\n"), 0o644))
	require.NoError(t, w.Reload())

	s := <-w.Updates()
	assert.Equal(t, "b", s.Host)
	select {
	case extra := <-w.Updates():
		t.Fatalf("unexpected extra update %+v", extra)
	default:
	}
}

func TestSettingsWatcher_InvalidFileRejected(t *testing.T) {
	path := writeConfig(t, "config.yaml", "mqtt:\n  enabled: true\n  host: a\n  port: 0\n  client_id: x\n")
	require.NoError(t, os.WriteFile(path, []byte("mqtt:\n  enabled: true\n  host: a\n  port: -1\n"), 0o644))
	w, err := NewSettingsWatcher(path, coremqtt.Settings{ClientID: "dev"}, nil)
	require.NoError(t, err)

	assert.Error(t, w.Reload())
	assert.Empty(t, w.Updates())
}

func TestSettingsWatcher_WatchFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", "mqtt:\n  enabled: true\n  host: a\n")
	w, err := NewSettingsWatcher(path, coremqtt.Settings{ClientID: "dev"}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(path, []byte("mqtt:\n  enabled: true\n  host: watched\n"), 0o644))

	select {
	case s := <-w.Updates():
		assert.Equal(t, "watched", s.Host)
	case <-time.After(5 * time.Second):
		t.Fatal("no update after file change")
	}
}

func TestNewSettingsWatcher_Errors(t *testing.T) {
	_, err := NewSettingsWatcher("", coremqtt.Settings{}, nil)
	assert.Error(t, err)
	_, err = NewSettingsWatcher("conf.ini", coremqtt.Settings{}, nil)
	assert.Error(t, err)
}

func TestSettingsWatcher_ReusesLastAppliedClientID(t *testing.T) {
	path := writeConfig(t, "config.yaml", "mqtt:\n  enabled: true\n  host: a\n  client_id: changed\n")
	w, err := NewSettingsWatcher(path, coremqtt.Settings{ClientID: "startup"}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Reload())
	assert.Equal(t, "changed", (<-w.Updates()).ClientID)

	require.NoError(t, os.WriteFile(path, []byte("mqtt:\n  enabled: true\n  host: a\n"), 0o644))
	require.NoError(t, w.Reload())
	assert.Equal(t, "changed", (<-w.Updates()).ClientID)
}
