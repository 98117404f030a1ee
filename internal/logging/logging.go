// Package logging builds the application's structured logger. Per spec §5's
// "logs to a file, never to stdout/stderr" constraint (the TUI owns the
// terminal), every sink is a file under the config directory, rotated by
// lumberjack so a long-running session never grows the log file unbounded.
package logging

import (
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is <user-config>/s3c/s3c.log.
const LogFileName = "s3c.log"

// New builds a *zap.Logger writing JSON lines to <configDir>/s3c.log,
// rotated at 10 MiB with 3 backups kept. debug widens the level from Info
// to Debug (the --debug flag in cmd/s3c).
func New(configDir string, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(configDir, LogFileName),
		MaxSize:    10, // MiB
		MaxBackups: 3,
		MaxAge:     28, // days
	})

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)
	return zap.New(core)
}
