package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsTerminalFalseForPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	require.False(t, isTerminal(r))
}

func TestDebugFlagRegistered(t *testing.T) {
	flag := rootCmd.Flags().Lookup("debug")
	require.NotNil(t, flag)
	require.Equal(t, "false", flag.DefValue)
}

func TestConfigDirFlagRegistered(t *testing.T) {
	flag := rootCmd.Flags().Lookup("config-dir")
	require.NotNil(t, flag)
	require.Equal(t, "", flag.DefValue)
}

func TestConfigDirFlagOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, rootCmd.Flags().Set("config-dir", dir))
	defer func() { require.NoError(t, rootCmd.Flags().Set("config-dir", "")) }()

	require.Equal(t, dir, configDir)
}
