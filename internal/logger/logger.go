package logger

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// LegacyEnv switches Init to the plain fmt-based logger when set to "true"
const LegacyEnv = "TREEMIRROR_USE_LEGACY_LOGGER"

// ErrAlreadyInitialized is returned by Init until Shutdown has been called
var ErrAlreadyInitialized = errors.New("logger already initialized")

var (
	mu      sync.RWMutex
	current Logger // nil until Init
)

// Init 初始化全域 logger
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		return fmt.Errorf("%w; call Shutdown() first", ErrAlreadyInitialized)
	}

	l, err := build(config)
	if err != nil {
		return err
	}
	current = l
	return nil
}

// build picks the backend for config
func build(config Config) (Logger, error) {
	// 回退機制
	if os.Getenv(LegacyEnv) == "true" {
		legacy := NewLegacyLogger()
		legacy.SetLevel(config.Level)
		return legacy, nil
	}

	l, err := NewSlogLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create slog logger: %w", err)
	}
	return l, nil
}

// Get 取得全域 logger; before Init it is a NullLogger
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil {
		return &NullLogger{}
	}
	return current
}

// With 建立帶 context 的子 logger
func With(args ...any) Logger {
	return Get().With(args...)
}

// Sync flushes the global logger
func Sync() error {
	return Get().Sync()
}

// Shutdown closes the global logger and resets it so Init may run again
func Shutdown() error {
	mu.Lock()
	l := current
	current = nil
	mu.Unlock()

	if l == nil {
		return nil
	}
	// called outside mu; a handler may log while closing
	return l.Shutdown()
}

// NullLogger discards everything
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, args ...any) {}
func (n *NullLogger) Info(msg string, args ...any)  {}
func (n *NullLogger) Warn(msg string, args ...any)  {}
func (n *NullLogger) Error(msg string, args ...any) {}
func (n *NullLogger) With(args ...any) Logger       { return n }
func (n *NullLogger) Sync() error                   { return nil }
func (n *NullLogger) Shutdown() error               { return nil }
