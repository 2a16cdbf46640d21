package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ning0612/Treemirror/internal/domain"
)

const sampleConfig = `
home: /home/rice
state_dir: /tmp/treemirror-state
log:
  level: debug
jobs:
  - name: dotfiles
    source: /cache/rice/dotfiles
    target: /home/rice
    protected: [.xinitrc, .bash_profile]
  - name: scripts
    source: /cache/rice/bin
    target: /home/rice/.local/bin
    mode: executable
    best_effort: true
  - name: secrets
    source: /cache/rice/secrets
    target: /home/rice/.secrets
    mode: "0600"
    enabled: false
hooks:
  dir: /home/rice/.config/session.d
  entries:
    - name: compositor
      priority: 10
      command: picom -b
`

func TestLoadFromString(t *testing.T) {
	cfg, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}

	if cfg.Home != "/home/rice" {
		t.Errorf("Home = %q", cfg.Home)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format default = %q, want text", cfg.Log.Format)
	}
	if cfg.Log.File.MaxSizeMB != 10 {
		t.Errorf("Log.File.MaxSizeMB default = %d, want 10", cfg.Log.File.MaxSizeMB)
	}
	if len(cfg.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(cfg.Jobs))
	}
	if !cfg.Jobs[1].BestEffort {
		t.Error("scripts job should be best effort")
	}
	if len(cfg.Hooks.Entries) != 1 || cfg.Hooks.Entries[0].Priority != 10 {
		t.Errorf("unexpected hooks: %+v", cfg.Hooks.Entries)
	}
}

func TestEnabledDefaultsToTrue(t *testing.T) {
	cfg, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}

	enabled := cfg.GetEnabledJobs()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled jobs, got %d", len(enabled))
	}
	if enabled[0].Name != "dotfiles" || enabled[1].Name != "scripts" {
		t.Errorf("unexpected enabled order: %s, %s", enabled[0].Name, enabled[1].Name)
	}
}

func TestGetJob(t *testing.T) {
	cfg, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}

	job, err := cfg.GetJob("scripts")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Target != "/home/rice/.local/bin" {
		t.Errorf("Target = %q", job.Target)
	}

	if _, err := cfg.GetJob("nope"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    fs.FileMode
		wantErr bool
	}{
		{"", 0o644, false},
		{"data", 0o644, false},
		{"Data", 0o644, false},
		{"executable", 0o755, false},
		{"exec", 0o755, false},
		{"0600", 0o600, false},
		{"0o640", 0o640, false},
		{"755", 0o755, false},
		{"0", 0, true},
		{"0999", 0, true},
		{"17777", 0, true},
		{"rwx", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMode(%q) expected error, got %o", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %o, want %o", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name:    "empty config",
			yaml:    "jobs: []",
			wantErr: false,
		},
		{
			name: "duplicate job",
			yaml: `
jobs:
  - {name: a, source: /s, target: /d}
  - {name: a, source: /s2, target: /d2}
`,
			wantErr: true,
		},
		{
			name:    "missing source",
			yaml:    "jobs:\n  - {name: a, target: /d}\n",
			wantErr: true,
		},
		{
			name:    "missing target",
			yaml:    "jobs:\n  - {name: a, source: /s}\n",
			wantErr: true,
		},
		{
			name:    "bad mode",
			yaml:    "jobs:\n  - {name: a, source: /s, target: /d, mode: weird}\n",
			wantErr: true,
		},
		{
			name:    "bad ignore pattern",
			yaml:    "jobs:\n  - {name: a, source: /s, target: /d, ignore: ['[']}\n",
			wantErr: true,
		},
		{
			name: "hook priority out of range",
			yaml: `
hooks:
  dir: /tmp/h
  entries:
    - {name: x, priority: 100, command: "true"}
`,
			wantErr: true,
		},
		{
			name: "hook bad name",
			yaml: `
hooks:
  dir: /tmp/h
  entries:
    - {name: "a b", priority: 1, command: "true"}
`,
			wantErr: true,
		},
		{
			name: "hooks without dir",
			yaml: `
hooks:
  entries:
    - {name: x, priority: 1, command: "true"}
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.yaml)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfigInvalid) {
					t.Errorf("expected ErrConfigInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_UnquotedOctalMode(t *testing.T) {
	for _, mode := range []string{"0644", "0640", "0755", "0600", "644"} {
		t.Run(mode, func(t *testing.T) {
			_, err := LoadFromString("jobs:\n  - {name: a, source: /s, target: /d, mode: " + mode + "}\n")
			if !errors.Is(err, domain.ErrConfigInvalid) {
				t.Fatalf("LoadFromString(mode: %s) error = %v, want ErrConfigInvalid", mode, err)
			}
			if !strings.Contains(err.Error(), "quote octal modes") {
				t.Errorf("error %q lacks the quoting hint", err)
			}
		})
	}

	cfg, err := LoadFromString("jobs:\n  - {name: a, source: /s, target: /d, mode: \"0640\"}\n")
	if err != nil {
		t.Fatalf("quoted mode: %v", err)
	}
	job, err := cfg.BuildJob(cfg.Jobs[0])
	if err != nil {
		t.Fatalf("BuildJob() error = %v", err)
	}
	if job.FileMode != 0o640 {
		t.Errorf("FileMode = %o, want 640", job.FileMode)
	}
}

func TestBuildJob(t *testing.T) {
	cfg, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}

	job, err := cfg.BuildJob(cfg.Jobs[0])
	if err != nil {
		t.Fatalf("BuildJob failed: %v", err)
	}
	if job.FileMode != domain.ModeData {
		t.Errorf("FileMode = %o, want %o", job.FileMode, domain.ModeData)
	}
	if !job.IsProtected(".xinitrc") {
		t.Error(".xinitrc should be protected when target is home")
	}
	if job.IsProtected(".zshrc") {
		t.Error(".zshrc should not be protected")
	}

	scripts, err := cfg.BuildJob(cfg.Jobs[1])
	if err != nil {
		t.Fatalf("BuildJob failed: %v", err)
	}
	if scripts.FileMode != domain.ModeExecutable {
		t.Errorf("FileMode = %o, want %o", scripts.FileMode, domain.ModeExecutable)
	}
	if scripts.IsProtected(".xinitrc") {
		t.Error("job without protected names should protect nothing")
	}
}

func TestBuildJob_SameSourceAndTarget(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.BuildJob(JobConfig{Name: "loop", Source: "/x", Target: "/x/"})
	if !errors.Is(err, domain.ErrInvalidJob) {
		t.Errorf("expected ErrInvalidJob, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Jobs) != 3 {
		t.Errorf("expected 3 jobs, got %d", len(cfg.Jobs))
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TREEMIRROR_LOG_LEVEL", "warn")

	cfg, err := LoadFromString(sampleConfig)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn from environment", cfg.Log.Level)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("TREEMIRROR_TEST_DIR", "/opt/rice")

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/.config", filepath.Join(home, ".config")},
		{"$TREEMIRROR_TEST_DIR/bin", "/opt/rice/bin"},
		{"/etc//xdg/", "/etc/xdg"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetStateDir(t *testing.T) {
	cfg := &Config{StateDir: "/var/tmp/tm"}
	if got := cfg.GetStateDir(); got != "/var/tmp/tm" {
		t.Errorf("GetStateDir() = %q", got)
	}

	t.Setenv("XDG_STATE_HOME", "/xdg/state")
	cfg = &Config{}
	if got := cfg.GetStateDir(); got != "/xdg/state/treemirror" {
		t.Errorf("GetStateDir() = %q, want /xdg/state/treemirror", got)
	}
}

func TestConfigFileUsed(t *testing.T) {
	if got := ConfigFileUsed("/etc/treemirror.yaml"); got != "/etc/treemirror.yaml" {
		t.Errorf("ConfigFileUsed(explicit) = %q", got)
	}

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWD) })
	if got := ConfigFileUsed(""); got != "" {
		t.Errorf("ConfigFileUsed() with no file = %q, want empty", got)
	}

	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("jobs: []\n"), 0o644)
	if got := ConfigFileUsed(""); got != "config.yaml" {
		t.Errorf("ConfigFileUsed() = %q, want config.yaml", got)
	}
}
