package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultEngineConfig(), cfg)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEngineConfig(), cfg)
}

func TestLoad_OverlaysProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	data := `
polling_mode: select
cycle_length_millis: 250
cycle_count: 120
starting_room_vnum: 3001
listeners:
  - name: ipv4
    bind: 127.0.0.1
    port: 5000
  - name: ipv6
    bind: "::1"
    port: 5000
    ipv6: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "select", cfg.PollingMode)
	assert.Equal(t, 3001, cfg.StartingRoomVNum)
	require.Len(t, cfg.Listeners, 2)
	assert.Equal(t, 5000, cfg.Listeners[0].Port)
	assert.True(t, cfg.Listeners[1].IPv6)

	// Fields absent from the overlay still carry their defaults.
	assert.Equal(t, DefaultEngineConfig().MaxSocketsPerThread, cfg.MaxSocketsPerThread)
	assert.Equal(t, DefaultEngineConfig().WorldDir, cfg.WorldDir)
}

func TestLoad_MalformedYAMLIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEngineConfig_CycleLength(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.Equal(t, 250*time.Millisecond, cfg.CycleLength())
}
