// Package logging sets up the zap loggers used across the controller.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalMu     sync.RWMutex
	globalLogger = zap.NewNop().Sugar()
)

// NewConfig returns the console config used on the robot: colour levels, no
// stacktraces, ISO timestamps.
func NewConfig(debug bool) zap.Config {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// Init builds the process logger and installs it as the global one.
func Init(debug bool) (*zap.SugaredLogger, error) {
	l, err := NewConfig(debug).Build()
	if err != nil {
		return nil, err
	}
	s := l.Sugar()
	ReplaceGlobal(s)
	return s, nil
}

func ReplaceGlobal(l *zap.SugaredLogger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

func Global() *zap.SugaredLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Named returns a child of the global logger, e.g. Named("lidar").
func Named(name string) *zap.SugaredLogger {
	return Global().Named(name)
}
