// Command s3c is the terminal entry point: it wires the Config Store,
// Credential Resolver, S3/filesystem Gateways, Transfer Manager, and the
// Message Loop kernel together and runs the bubbletea program.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/s3c/s3c/internal/config"
	"github.com/s3c/s3c/internal/creds"
	"github.com/s3c/s3c/internal/fsgw"
	"github.com/s3c/s3c/internal/kernel"
	"github.com/s3c/s3c/internal/logging"
	"github.com/s3c/s3c/internal/transfer"
)

var (
	debug     bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "s3c",
	Short: "Dual-panel terminal file manager for S3 and the local filesystem",
	Long: `s3c browses AWS (and S3-compatible) object stores side by side with
the local filesystem, transfers files between the two, and maintains a
persistent registry of profiles and buckets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&debug, "debug", false, "widen the log file to debug level")
	rootCmd.Flags().StringVar(&configDir, "config-dir", "", "override the config/log directory (for tests)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "s3c:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("s3c requires an interactive terminal")
	}

	dir := configDir
	if dir == "" {
		resolved, err := config.DefaultConfigDir()
		if err != nil {
			return fmt.Errorf("resolve config directory: %w", err)
		}
		dir = resolved
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	logger := logging.New(dir, debug)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(dir)
	if err != nil {
		logger.Error("load config", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}

	credProfiles, err := config.ListCredentialProfileNames()
	if err != nil {
		logger.Error("list credentials profiles", zap.Error(err))
		return fmt.Errorf("read credentials file: %w", err)
	}

	resolver := creds.NewResolver()
	transfers := transfer.NewManager()
	fs := fsgw.New()

	model := kernel.New(dir, cfg, credProfiles, resolver, transfers, fs, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		logger.Error("program exited with error", zap.Error(err))
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
