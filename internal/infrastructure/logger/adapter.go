package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"insights-agent/internal/application/port/output"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

// LoggerAdapter implements LoggerPort over a zap SugaredLogger.
type LoggerAdapter struct {
	sugar *zap.SugaredLogger
	root  *zap.Logger
}

func NewLoggerAdapter(debug bool) (*LoggerAdapter, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	root, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &LoggerAdapter{
		sugar: root.Sugar(),
		root:  root,
	}, nil
}

// NewNopLogger returns an adapter that discards everything. Used in tests.
func NewNopLogger() *LoggerAdapter {
	root := zap.NewNop()
	return &LoggerAdapter{sugar: root.Sugar(), root: root}
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{
		sugar: l.sugar.With(key, value),
		root:  l.root,
	}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{
		sugar: l.sugar.With(args...),
		root:  l.root,
	}
}

func (l *LoggerAdapter) Close() error {
	// Sync returns an error on stderr targets on some platforms; the log
	// data is already flushed, so the error is not actionable.
	_ = l.root.Sync()
	return nil
}
