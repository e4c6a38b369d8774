package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

// InitLog builds the process logger. Unknown formats fall back to console.
func InitLog(lvl zap.AtomicLevel, format string) *zap.Logger {
	if format != JSONFormat {
		format = ConsoleFormat
	}

	loggerCfg := &zap.Config{
		Level:    lvl,
		Encoding: format,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "severity",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	plain, err := loggerCfg.Build(zap.AddStacktrace(zap.DPanicLevel))
	if err != nil {
		panic(err)
	}

	return plain
}

// Level parses a level name, defaulting to info.
func Level(name string) zap.AtomicLevel {
	lvl, err := zap.ParseAtomicLevel(name)
	if err != nil {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return lvl
}
