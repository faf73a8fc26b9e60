package diag

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/sfsbridge/core/factory"
	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	sq, err := NewSQLiteStore(filepath.Join(dir, "diag.db"))
	require.NoError(t, err)
	js, err := NewRotatingJSONLStore(filepath.Join(dir, "logs", "diag.jsonl"), 5, 1, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sq.Close()
		_ = js.Close()
	})
	return map[string]Store{"sqlite": sq, "jsonl": js}
}

func TestStores_RecentReturnsLastAttemptsOldestFirst(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec := NewRecorder(store)
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				require.NoError(t, rec.RecordConnectionAttempt(coremetrics.ConnectionAttempt{
					Host: "broker.local", Port: 1883, ClientID: "dev1",
					Success: i == 4, FailureCode: 5, Error: "refused",
					Duration: 15 * time.Millisecond,
					Time:     base.Add(time.Duration(i) * 30 * time.Second),
				}))
			}
			require.NoError(t, rec.RecordDiscovery(coremetrics.DiscoveryEvent{
				Sensor: "runout", Skipped: true, Time: base.Add(3 * time.Minute),
			}))

			got, err := Recent(context.Background(), store, 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.True(t, got[0].Time.Equal(base.Add(90*time.Second)))
			assert.True(t, got[1].Time.Equal(base.Add(120*time.Second)))
			assert.True(t, got[1].Success)
			assert.Equal(t, "broker.local:1883", got[1].Subject)
			assert.Equal(t, "dev1", got[1].ClientID)
			assert.Equal(t, int64(15), got[1].DurationMS)
		})
	}
}

func TestStores_QueryByKindAndSince(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec := NewRecorder(store)
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			for i, s := range []string{"movement", "runout", "connection"} {
				require.NoError(t, rec.RecordDiscovery(coremetrics.DiscoveryEvent{
					Sensor: s, Published: i == 0, Skipped: i > 0, Time: base.Add(time.Duration(i) * time.Second),
				}))
			}

			got, err := store.Query(context.Background(), Query{Kind: KindDiscovery, Since: base.Add(time.Second)})
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "runout", got[0].Subject)
			assert.True(t, got[0].Skipped)
			assert.Equal(t, "connection", got[1].Subject)

			none, err := store.Query(context.Background(), Query{Kind: KindConnection})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestRegisteredRecorders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.db")
	r, err := coremetrics.NewRecorder(coremetrics.Config{Sinks: []factory.ModuleConfig{
		{Type: "sqlite", Conf: map[string]any{"path": path}},
	}})
	require.NoError(t, err)
	d, ok := r.(*Recorder)
	require.True(t, ok)
	defer d.Close()

	require.NoError(t, d.RecordConnectionAttempt(coremetrics.ConnectionAttempt{Host: "h", Port: 1, Time: time.Now()}))
	got, err := Recent(context.Background(), d.Store(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
