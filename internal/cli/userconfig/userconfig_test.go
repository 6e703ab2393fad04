package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &UserConfig{}, cfg)
}

func TestSetSelectedServer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SetSelectedServer("http://localhost:8080"))

	selected, err := GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", selected)

	_, err = os.Stat(filepath.Join(home, ".config", "taskdesk", "config.json"))
	assert.NoError(t, err)
}

func TestSetSelectedServer_KeepsTokenStore(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Save(&UserConfig{TokenStore: "file"}))
	require.NoError(t, SetSelectedServer("https://tasks.example.com"))

	kind, err := GetTokenStore()
	require.NoError(t, err)
	assert.Equal(t, "file", kind)
}

func TestLoad_Malformed(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "taskdesk")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse user config file")
}
