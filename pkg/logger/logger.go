// Package logger wraps zap with the request correlation fields of appctx.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "resido/internal/core/context"
)

// Logger is a sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

type loggerKey struct{}

type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colors
	Service     string // added to every entry when set
}

func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stdout"}

	zl, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	if cfg.Service != "" {
		zl = zl.With(zap.String("service", cfg.Service))
	}
	return &Logger{zl.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

var (
	mu            sync.RWMutex
	defaultLogger *Logger
)

// SetDefault replaces the logger used when the context carries none.
func SetDefault(l *Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// Default returns the process-wide logger, a production logger until SetDefault is called.
func Default() *Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		zl, err := zap.NewProduction(zap.AddCallerSkip(1))
		if err != nil {
			zl = zap.NewNop()
		}
		defaultLogger = &Logger{zl.Sugar()}
	}
	return defaultLogger
}

// WithContext adds the request ids and the caller's account to every entry.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sugar := l.SugaredLogger
	if trace := appctx.GetTrace(ctx); trace != nil {
		sugar = sugar.With("trace_id", trace.TraceID, "request_id", trace.RequestID)
	}
	if user := appctx.GetUser(ctx); user != nil {
		sugar = sugar.With("user_id", user.UserID, "class", string(user.Class))
	}
	return &Logger{sugar}
}

func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{l.SugaredLogger.With("component", name)}
}

// WithLogger stores l in ctx for FromContext.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored by WithLogger, or Default, with the
// context's correlation fields attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l.WithContext(ctx)
	}
	return Default().WithContext(ctx)
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
