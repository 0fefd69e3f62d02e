// Package logger wraps a process-wide zap logger the way the rest of this
// codebase expects to use it: package-level Info/Warn/Error/Fatal helpers
// backed by a single *zap.Logger built at startup.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Init builds the process-wide logger. debug enables development-mode
// encoding (colorized level, caller, stacktraces on warn) for local runs.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	built, err := cfg.Build()
	if err != nil {
		// logger construction failing is fatal before anything else can run
		panic(err)
	}
	log = built
}

// Sync flushes any buffered log entries. Call via defer from main.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func L() *zap.Logger {
	if log == nil {
		Init(false)
	}
	return log
}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

func Fatal(msg string, fields ...zap.Field) {
	L().Fatal(msg, fields...)
	os.Exit(1)
}
