package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func textConfig(buf *bytes.Buffer, level Level) Config {
	return Config{
		Level:  level,
		Format: FormatText,
		Outputs: []OutputConfig{
			{Type: OutputStdout, Writer: buf},
		},
	}
}

func TestLogger_InitAndGet(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Init(textConfig(buf, LevelInfo)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	Get().Info("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("log output missing message: %s", buf.String())
	}
}

func TestLogger_DoubleInit(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Init(textConfig(buf, LevelInfo)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	if err := Init(textConfig(buf, LevelInfo)); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestLogger_NullLogger(t *testing.T) {
	Shutdown()

	logger := Get()
	// 不應該 panic
	logger.Info("should not crash")
	logger.With("k", "v").Debug("should not crash")
	logger.Warn("should not crash")
	logger.Error("should not crash")
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(textConfig(buf, LevelInfo))
	defer Shutdown()

	With("job", "dotfiles").Info("message")

	if !strings.Contains(buf.String(), "job=dotfiles") {
		t.Errorf("output missing context: %s", buf.String())
	}
}

func TestLogger_LegacyFallback(t *testing.T) {
	t.Setenv(LegacyEnv, "true")

	if err := Init(textConfig(&bytes.Buffer{}, LevelInfo)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	if _, ok := Get().(*LegacyLogger); !ok {
		t.Errorf("expected *LegacyLogger, got %T", Get())
	}
}

func TestLogger_Shutdown(t *testing.T) {
	Init(textConfig(&bytes.Buffer{}, LevelInfo))
	Get().Info("before shutdown")

	if err := Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	// 再次呼叫應該不會 panic
	if err := Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestLegacyLogger_Levels(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	l := &LegacyLogger{level: LevelWarn, out: out, errOut: errOut}

	l.Info("hidden")
	l.Warn("shown", "path", "x")

	if out.Len() != 0 {
		t.Errorf("info should be filtered: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[WARN] shown") {
		t.Errorf("warn missing: %q", errOut.String())
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	tests := []struct {
		input string
		level Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.level {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.level)
		}
	}

	if ParseFormat("JSON") != FormatJSON || ParseFormat("whatever") != FormatText {
		t.Error("ParseFormat mismatch")
	}
}
