// Package logging builds the robot's logger.
package logging

import (
	"os"

	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tigerbot-team/mikeymonster/pkg/config"
)

// New returns a console logger, teed to a rotated JSON file if one is
// configured.
func New(name string, debug bool, cfg config.Logging) golog.Logger {
	if cfg.File == "" {
		if debug {
			return golog.NewDebugLogger(name)
		}
		return golog.NewLogger(name)
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level),
	)
	return zap.New(core).Sugar().Named(name)
}
