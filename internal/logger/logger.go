// Package logger wraps go.uber.org/zap with the level and encoder settings
// shared by the twofzip CLI and the smsgate development gateway.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger holds the process-wide structured logger.
type ZapLogger struct {
	// Log is a no-op logger until Init succeeds.
	Log *zap.Logger
}

// New returns a ZapLogger backed by a no-op zap.Logger.
func New() *ZapLogger {
	return &ZapLogger{Log: zap.NewNop()}
}

// Init replaces Log with a console-encoded logger writing to stderr at the
// given level ("debug", "info", "warn", "error").
func (l *ZapLogger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = zl
	return nil
}
