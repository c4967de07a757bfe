package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaultWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	cur := store.Current()
	assert.True(t, cur.Enabled)
	assert.Equal(t, 3, cur.UpdateIntervalTicks)
	assert.True(t, cur.IncludeNPCs)
	assert.True(t, cur.IncludePlayers)
	assert.False(t, cur.IncludeItems)
	assert.Equal(t, 8765, cur.WebsocketPort)
	assert.True(t, cur.Debug.EntityActions)

	_, statErr := os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, statErr, "Load must persist the default config on first run")
}

func TestUpdateIntervalMsRoundTrip(t *testing.T) {
	c := Default()
	assert.Equal(t, 99, c.UpdateIntervalMs())
	assert.Equal(t, 3, TicksFromMillis(99))
	assert.Equal(t, 4, TicksFromMillis(100))
	assert.Equal(t, 1, TicksFromMillis(0))
}

func TestApply_IgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	updated := store.Apply(map[string]any{
		"includePlayers": true,
		"notAKey":        "value",
		"debug.entityActions": false,
	})

	assert.True(t, updated.IncludePlayers)
	assert.False(t, updated.Debug.EntityActions)
	assert.Equal(t, updated, store.Current())
}

func TestApply_PersistsAcrossLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	store.Apply(map[string]any{"maxCachedEntities": float64(500)})

	reloaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 500, reloaded.Current().MaxCachedEntities)
}
