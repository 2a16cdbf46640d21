package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlogLogger_Basic(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewSlogLogger(textConfig(buf, LevelDebug))
	if err != nil {
		t.Fatalf("NewSlogLogger() error = %v", err)
	}
	defer logger.Shutdown()

	logger.Info("installed", "path", ".bashrc")

	output := buf.String()
	if !strings.Contains(output, "installed") || !strings.Contains(output, "path=.bashrc") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestSlogLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		log       func(*SlogLogger)
		shouldLog bool
	}{
		{"debug at debug level", LevelDebug, func(l *SlogLogger) { l.Debug("msg") }, true},
		{"debug at info level", LevelInfo, func(l *SlogLogger) { l.Debug("msg") }, false},
		{"warn at info level", LevelInfo, func(l *SlogLogger) { l.Warn("msg") }, true},
		{"info at error level", LevelError, func(l *SlogLogger) { l.Info("msg") }, false},
		{"error at error level", LevelError, func(l *SlogLogger) { l.Error("msg") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger, _ := NewSlogLogger(textConfig(buf, tt.level))
			defer logger.Shutdown()

			tt.log(logger)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("logged = %v, want %v (%q)", logged, tt.shouldLog, buf.String())
			}
		})
	}
}

func TestSlogLogger_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := textConfig(buf, LevelInfo)
	cfg.Format = FormatJSON
	logger, _ := NewSlogLogger(cfg)
	defer logger.Shutdown()

	logger.Info("mirror completed", "installed", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "mirror completed" || entry["installed"] != float64(3) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSlogLogger_HomeRewrite(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := textConfig(buf, LevelInfo)
	cfg.Home = "/home/alice"
	logger, _ := NewSlogLogger(cfg)
	defer logger.Shutdown()

	logger.Info("installed", "dest", "/home/alice/.config/app.conf")

	if !strings.Contains(buf.String(), "dest=~/.config/app.conf") {
		t.Errorf("home not rewritten: %s", buf.String())
	}
}

func TestSlogLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "treemirror.log")

	cfg := Config{
		Level:   LevelInfo,
		Format:  FormatText,
		Outputs: []OutputConfig{{Type: OutputFile}},
		File: FileConfig{
			Enabled:    true,
			Path:       path,
			MaxSizeMB:  1,
			MaxBackups: 1,
		},
	}

	logger, err := NewSlogLogger(cfg)
	if err != nil {
		t.Fatalf("NewSlogLogger() error = %v", err)
	}
	logger.Info("written to file")
	if err := logger.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestSlogLogger_FileOutputEmptyPath(t *testing.T) {
	cfg := Config{
		Outputs: []OutputConfig{{Type: OutputFile}},
		File:    FileConfig{Enabled: true},
	}
	if _, err := NewSlogLogger(cfg); err == nil {
		t.Error("expected error for empty log path")
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestSlogLogger_ChildDoesNotClose(t *testing.T) {
	w := &closeRecorder{}
	logger, _ := NewSlogLogger(Config{Outputs: []OutputConfig{{Type: OutputStdout, Writer: w}}})

	child := logger.With("job", "x")
	child.Info("hello")
	child.Shutdown()
	if w.closed {
		t.Fatal("child logger closed a writer it does not own")
	}

	logger.Shutdown()
	if !w.closed {
		t.Error("root logger did not close its writer")
	}
	if !strings.Contains(w.String(), "job=x") {
		t.Errorf("child context missing: %s", w.String())
	}
}
