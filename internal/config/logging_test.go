package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("search finished", "results", 3)

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "search finished")

	var line map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &line))
	assert.Equal(t, "search finished", line["msg"])
	assert.Equal(t, float64(3), line["results"])
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procwise.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Info("started")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"started"`)
	assert.Contains(t, string(data), `"service":"procwise"`)
}

func TestSetupLoggerFallsBackToStderr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "procwise.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	require.NotNil(t, logger)
	assert.NoError(t, cleanup())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
