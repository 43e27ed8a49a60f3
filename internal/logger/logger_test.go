package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToDirAsRotatingFile(t *testing.T) {
	dir := t.TempDir()
	log := New(Config{Dir: dir, Level: slog.LevelInfo})
	log.Info("hello", "k", "v")

	data, err := os.ReadFile(filepath.Join(dir, "nurvus.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestColorTextHandlerPrefixesLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{}, true)
	log := slog.New(h)
	log.Warn("careful")
	assert.Contains(t, buf.String(), "WARN")
}
