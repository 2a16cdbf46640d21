package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// LegacyLogger 舊版 logger（使用 fmt.Fprint*，用於回退）
type LegacyLogger struct {
	mu     sync.RWMutex
	level  Level
	out    io.Writer
	errOut io.Writer
}

// NewLegacyLogger 建立 legacy logger
func NewLegacyLogger() *LegacyLogger {
	return &LegacyLogger{
		level:  LevelInfo,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

// SetLevel 設定日誌級別
func (l *LegacyLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *LegacyLogger) write(level Level, w io.Writer, tag, msg string, args []any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return
	}
	if len(args) == 0 {
		fmt.Fprintf(w, "[%s] %s\n", tag, msg)
		return
	}
	fmt.Fprintf(w, "[%s] %s %v\n", tag, msg, args)
}

func (l *LegacyLogger) Debug(msg string, args ...any) {
	l.write(LevelDebug, l.out, "DEBUG", msg, args)
}

func (l *LegacyLogger) Info(msg string, args ...any) {
	l.write(LevelInfo, l.out, "INFO", msg, args)
}

func (l *LegacyLogger) Warn(msg string, args ...any) {
	l.write(LevelWarn, l.errOut, "WARN", msg, args)
}

func (l *LegacyLogger) Error(msg string, args ...any) {
	l.write(LevelError, l.errOut, "ERROR", msg, args)
}

// With legacy 不支援 context，回傳自己
func (l *LegacyLogger) With(args ...any) Logger {
	return l
}

func (l *LegacyLogger) Sync() error {
	return nil
}

func (l *LegacyLogger) Shutdown() error {
	return nil
}
