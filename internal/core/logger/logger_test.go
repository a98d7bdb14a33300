package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, cleanup := New(Options{Level: "info", JSON: true, File: path})
	l.Info("listing approved", zap.Uint("id", 7))
	l.Debug("dropped below level")
	cleanup()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "listing approved", entry["msg"])
	assert.EqualValues(t, 7, entry["id"])
	assert.Contains(t, entry, "ts")
}

func TestNewBadLevelFallsBackToInfo(t *testing.T) {
	l, cleanup := New(Options{Level: "nope"})
	defer cleanup()
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}
