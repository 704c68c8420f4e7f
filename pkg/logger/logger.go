// Package logger provides structured zap logging enriched from the request context.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "pharmaledger/internal/core/context"
)

// Logger is a sugared zap logger. Package-level helpers pick it up from ctx.
type Logger struct {
	*zap.SugaredLogger
}

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error; anything else means info
	Development bool   // coloured console output instead of JSON
	OutputPaths []string
}

func (c Config) zapConfig() zap.Config {
	var zc zap.Config
	if c.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if len(c.OutputPaths) > 0 {
		zc.OutputPaths = c.OutputPaths
	}
	return zc
}

// New builds a Logger tagged with service=pharmaledger.
func New(cfg Config) (*Logger, error) {
	z, err := cfg.zapConfig().Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar().With("service", "pharmaledger")}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

var fallback = sync.OnceValue(func() *Logger {
	l, err := New(Config{Level: "info", OutputPaths: []string{"stdout"}})
	if err != nil {
		return Nop()
	}
	return l
})

// Default is the logger used when ctx carries none.
func Default() *Logger {
	return fallback()
}

// WithContext tags the logger with the request trace and the acting
// pharmacist found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var kv []any
	if t, ok := appctx.GetTrace(ctx); ok {
		kv = append(kv, "trace_id", t.TraceID, "request_id", t.RequestID)
	}
	if actor, ok := appctx.GetActor(ctx); ok {
		kv = append(kv, "actor_id", actor.ActorID.String(), "pharmacy_id", actor.PharmacyID.String())
	}
	if len(kv) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(kv...)}
}

func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{l.SugaredLogger.With(keysAndValues...)}
}

// WithComponent names the subsystem, e.g. "worker" or "outbox".
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

type loggerKey struct{}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the ctx logger (or Default) enriched by WithContext.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Debugw(msg, keysAndValues...)
}

func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}

// Fatal logs and exits the process.
func Fatal(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Fatalw(msg, keysAndValues...)
}
