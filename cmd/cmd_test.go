package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
	"github.com/kilianp07/sfsbridge/infra/diag"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `mqtt:
  enabled: true
  host: broker.local
  username: user
  password: hunter2
  client_id: dev1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestConfigShow_Redacts(t *testing.T) {
	out := execute(t, "config", "show", "-c", writeConfig(t))
	assert.Contains(t, out, "host: broker.local")
	assert.Contains(t, out, "port: 1883")
	assert.Contains(t, out, "topic_prefix: homeassistant")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "hunter2")
}

func TestDiscoveryPreview(t *testing.T) {
	out := execute(t, "discovery", "-c", writeConfig(t))
	assert.Equal(t, 5, strings.Count(out, "# homeassistant/sensor/dev1_"))
	assert.Contains(t, out, `"unique_id": "dev1_runout"`)
	assert.Contains(t, out, `"availability_topic": "homeassistant/dev1_death"`)
}

func TestDiagListsRecentAttempts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.db")
	store, err := diag.NewSQLiteStore(path)
	require.NoError(t, err)
	rec := diag.NewRecorder(store)
	require.NoError(t, rec.RecordConnectionAttempt(coremetrics.ConnectionAttempt{
		Host: "broker.local", Port: 1883, ClientID: "dev1", FailureCode: 5, Error: "not authorized", Time: time.Now(),
	}))
	require.NoError(t, rec.Close())

	out := execute(t, "diag", "--path", path, "-n", "5")
	assert.Contains(t, out, "broker.local:1883")
	assert.Contains(t, out, "not authorized")
	assert.Contains(t, out, "failed")

	got, err := diag.Recent(context.Background(), mustOpen(t, path), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func mustOpen(t *testing.T, path string) diag.Store {
	t.Helper()
	s, err := diag.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
