// Package telemetry builds the zap loggers used across the client and
// server binaries, matching the teacher's choice of go.uber.org/zap for
// structured logging.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewClientLogger builds a human-readable, stderr-only logger for the
// interactive shell. Verbose gates debug-level output, mirroring the
// teacher's Globals.Debug gate.
func NewClientLogger(verbose bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// NewServerLogger builds a structured JSON logger suitable for a
// supervised host process.
func NewServerLogger(verbose bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
