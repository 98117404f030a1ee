package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONLinesToLogFile(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir, false)
	defer func() { _ = logger.Sync() }()

	logger.Info("started")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"started"`)
}

func TestNewDebugWidensLevel(t *testing.T) {
	dir := t.TempDir()
	logger := New(dir, true)
	defer func() { _ = logger.Sync() }()

	logger.Debug("debug line")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"debug line"`)
}
