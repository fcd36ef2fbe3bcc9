package logging

import (
	"strings"

	"github.com/matt-cal/main-st/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap.Logger from the log section of the configuration.
// Encoding "console" selects the development encoder with colored levels;
// anything else produces JSON with ISO8601 timestamps. Unknown levels fall
// back to info.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config

	if cfg.Encoding == "console" {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	return zcfg.Build()
}

// MustNewLogger creates a logger and panics if initialization fails.
func MustNewLogger(cfg config.LogConfig) *zap.Logger {
	logger, err := NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	return logger
}

func parseLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zapcore.InfoLevel
	}
	var zapLevel zapcore.Level
	if err := zapLevel.Set(level); err != nil {
		return zapcore.InfoLevel
	}
	return zapLevel
}
