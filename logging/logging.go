// Package logging builds the zap logger used throughout taskgate.
package logging

import (
	"fmt"

	"github.com/teilomillet/taskgate/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger from the logging configuration. JSON output uses the
// zap production encoder, text output the development (console) encoder.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	name, err := config.NormalizeLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "text":
		zc = zap.NewDevelopmentConfig()
	default:
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
