// Package logger wraps zap with the process-wide configuration used by every component
package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	// Config describes where and how verbosely to log
	Config struct {
		LogFile   string // JSON log file, empty disables file output
		LogLevel  string // debug, info, warn, error
		AppName   string
		AddCaller bool
	}

	// Logger is the application logger handed to components
	Logger struct {
		*zap.Logger
	}
)

var (
	global = NewNop()
	mu     sync.RWMutex
)

// Init builds the global logger. Console output goes to stderr so stdout stays
// free for the console driver.
func Init(cfg Config) error {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level))
	}

	opts := []zap.Option{}
	if cfg.AddCaller {
		opts = append(opts, zap.AddCaller())
	}

	zl := zap.New(zapcore.NewTee(cores...), opts...)
	if cfg.AppName != "" {
		zl = zl.With(zap.String("app", cfg.AppName))
	}

	mu.Lock()
	global = &Logger{Logger: zl}
	mu.Unlock()

	return nil
}

// Get returns the global logger
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes buffered entries of the global logger
func Sync() {
	_ = Get().Logger.Sync()
}

// New wraps an existing zap logger
func New(zl *zap.Logger) *Logger {
	return &Logger{Logger: zl}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named returns a child logger tagged with the component name
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("component", component))}
}
