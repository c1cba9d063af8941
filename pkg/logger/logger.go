// Package logger provides a thin, structured wrapper around zap so the
// rest of the codebase never imports zap directly.
package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how a Logger is constructed.
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" or "console"
}

// Logger wraps a zap.SugaredLogger-free *zap.Logger for structured, leveled logging.
type Logger struct {
	z *zap.Logger
}

// New builds a Logger from Config.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = "ts"

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), level)
	z := zap.New(core, zap.AddCaller())

	return &Logger{z: z}, nil
}

// Nop returns a Logger that discards everything, useful in tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Named returns a child logger with name appended to the logger name chain.
func (l *Logger) Named(name string) *Logger {
	return &Logger{z: l.z.Named(name)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Field constructors, re-exported so callers never import zap.
func String(key, val string) zap.Field          { return zap.String(key, val) }
func Int(key string, val int) zap.Field         { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field     { return zap.Int64(key, val) }
func Float64(key string, val float64) zap.Field { return zap.Float64(key, val) }
func Bool(key string, val bool) zap.Field       { return zap.Bool(key, val) }
func Error(err error) zap.Field                 { return zap.Error(err) }
func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}
func Time(key string, val time.Time) zap.Field { return zap.Time(key, val) }
func Any(key string, val interface{}) zap.Field {
	return zap.Any(key, val)
}
