// Package obslog provides a structured logger interface over zap for
// this module's packages. None of them logs at present: the core data
// structures, the hash tables and marshal report through their return
// values, and no package in the module imports obslog.
package obslog

import "go.uber.org/zap"

// Logger is the interface components depend on, so tests can swap in a
// no-op or observed logger without pulling in zap's concrete types.
type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New wraps a production zap logger. Pass nil to get a no-op logger.
func New(base *zap.Logger) Logger {
	if base == nil {
		return Noop()
	}
	return &zapLogger{sugar: base.Sugar()}
}

func (l *zapLogger) Debugw(msg string, kv ...interface{}) { l.sugar.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})  { l.sugar.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})  { l.sugar.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{}) { l.sugar.Errorw(msg, kv...) }

type noopLogger struct{}

// Noop returns a Logger that discards everything, the default for
// components that accept an optional logger.
func Noop() Logger { return noopLogger{} }

func (noopLogger) Debugw(string, ...interface{}) {}
func (noopLogger) Infow(string, ...interface{})  {}
func (noopLogger) Warnw(string, ...interface{})  {}
func (noopLogger) Errorw(string, ...interface{}) {}
