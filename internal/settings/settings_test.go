package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempSettings(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesEqualsAndColonForms(t *testing.T) {
	path := writeTempSettings(t, ""+
		"# a comment\n"+
		"! also a comment\n"+
		"/ and this too\n"+
		"server.game.world = ./data/world\n"+
		"server.network.port: 4000\n"+
		"\n")

	s, err := Load(path)
	require.NoError(t, err)

	v, ok := s.Get("server.game.world")
	require.True(t, ok)
	assert.Equal(t, "./data/world", v)

	assert.Equal(t, 4000, s.GetNumber("server.network.port"))
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	path := writeTempSettings(t, "this line has no separator\nkey=value\n")

	s, err := Load(path)
	require.NoError(t, err)
	assert.True(t, s.Has("key"))
	assert.False(t, s.Has("this"))
}

func TestLookup_CaseInsensitive(t *testing.T) {
	s := New()
	s.Set("Server.Game.World", "./data/world")

	v, ok := s.Get("server.game.world")
	require.True(t, ok)
	assert.Equal(t, "./data/world", v)
}

func TestIsEnabled(t *testing.T) {
	s := New()
	s.Set("a", "true")
	s.Set("b", "yes")
	s.Set("c", "on")
	s.Set("d", "nope")

	assert.True(t, s.IsEnabled("a"))
	assert.True(t, s.IsEnabled("b"))
	assert.True(t, s.IsEnabled("c"))
	assert.False(t, s.IsEnabled("d"))
	assert.False(t, s.IsEnabled("missing"))
}

func TestGetNumber_NonNumericReturnsZero(t *testing.T) {
	s := New()
	s.Set("port", "not-a-number")
	assert.Equal(t, 0, s.GetNumber("port"))
	assert.Equal(t, 0, s.GetNumber("missing"))
}
