package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "processes.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadValidDefinitions(t *testing.T) {
	path := writeTempConfig(t, `[
		{"id":"worker","name":"Background Worker","command":"python",
		 "args":["worker.py"],"cwd":"/srv/worker","env":{"PORT":"3000"},
		 "auto_restart":true,"max_restarts":5,"restart_window_seconds":120}
	]`)
	defs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "worker", defs[0].ID)
	assert.Equal(t, 5, defs[0].MaxRestarts)
	assert.Equal(t, "3000", defs[0].Env["PORT"])
}

func TestLoadMissingID(t *testing.T) {
	path := writeTempConfig(t, `[{"name":"no id","command":"true"}]`)
	_, err := Load(path)
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "id", fe.Field)
}

func TestLoadDuplicateID(t *testing.T) {
	path := writeTempConfig(t, `[
		{"id":"worker","command":"true"},
		{"id":"worker","command":"true"}
	]`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadUnknownPlatform(t *testing.T) {
	path := writeTempConfig(t, `[{"id":"x","command":"true","platform":"amiga"}]`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadDefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, `[{"id":"y","command":"true"}]`)
	defs, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, defs[0].MaxRestarts)
	assert.Equal(t, 60, defs[0].RestartWindowSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
