package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Ning0612/Treemirror/internal/core/protect"
	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/hooks"
)

// Config represents the complete configuration for treemirror
type Config struct {
	// Home overrides the home directory used for protected-file checks
	Home string `mapstructure:"home"`

	// StateDir holds the run lock and history database
	StateDir string `mapstructure:"state_dir"`

	Log   LogConfig   `mapstructure:"log"`
	Jobs  []JobConfig `mapstructure:"jobs"`
	Hooks HooksConfig `mapstructure:"hooks"`
}

// JobConfig describes one source tree to mirror
type JobConfig struct {
	Name   string `mapstructure:"name"`
	Source string `mapstructure:"source"`
	Target string `mapstructure:"target"`

	// Mode is "data", "executable" or a quoted octal string such as "0600"
	Mode Mode `mapstructure:"mode"`

	// Protected base names, honoured only when Target is the home directory
	Protected []string `mapstructure:"protected"`

	// Ignore glob patterns excluded from the source tree
	Ignore []string `mapstructure:"ignore"`

	// BestEffort lets the run continue when this job fails
	BestEffort bool `mapstructure:"best_effort"`

	// Enabled defaults to true when omitted
	Enabled *bool `mapstructure:"enabled"`
}

// IsEnabled reports whether the job takes part in a full run
func (j JobConfig) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// Mode is a job's file mode setting. It only decodes from a string:
// YAML reads an unquoted 0644 as the integer 420.
type Mode string

// LogConfig configures the logger
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures the rotating log file
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// HooksConfig configures the session-hook directory
type HooksConfig struct {
	Dir     string             `mapstructure:"dir"`
	Entries []domain.HookEntry `mapstructure:"entries"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	jobNames := make(map[string]bool)
	for _, j := range c.Jobs {
		if j.Name == "" {
			return fmt.Errorf("%w: job name cannot be empty", domain.ErrConfigInvalid)
		}
		if jobNames[j.Name] {
			return fmt.Errorf("%w: duplicate job name: %s", domain.ErrConfigInvalid, j.Name)
		}
		if j.Source == "" {
			return fmt.Errorf("%w: job %s has no source", domain.ErrConfigInvalid, j.Name)
		}
		if j.Target == "" {
			return fmt.Errorf("%w: job %s has no target", domain.ErrConfigInvalid, j.Name)
		}
		if _, err := ParseMode(string(j.Mode)); err != nil {
			return fmt.Errorf("%w: job %s: %v", domain.ErrConfigInvalid, j.Name, err)
		}
		for _, p := range j.Ignore {
			if _, err := filepath.Match(p, ""); err != nil {
				return fmt.Errorf("%w: job %s: bad ignore pattern %q", domain.ErrConfigInvalid, j.Name, p)
			}
		}
		jobNames[j.Name] = true
	}

	hookNames := make(map[string]bool)
	for _, h := range c.Hooks.Entries {
		if err := hooks.Validate(h); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
		if hookNames[h.Name] {
			return fmt.Errorf("%w: duplicate hook name: %s", domain.ErrConfigInvalid, h.Name)
		}
		hookNames[h.Name] = true
	}
	if len(c.Hooks.Entries) > 0 && c.Hooks.Dir == "" {
		return fmt.Errorf("%w: hooks.dir is required when hook entries are set", domain.ErrConfigInvalid)
	}

	return nil
}

// ParseMode converts a mode setting into permission bits
// An empty mode means "data"
func ParseMode(s string) (fs.FileMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "data":
		return domain.ModeData, nil
	case "executable", "exec":
		return domain.ModeExecutable, nil
	}

	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0o"), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q (quote octal modes, e.g. \"0644\")", s)
	}
	mode := fs.FileMode(v)
	if mode == 0 || mode&^fs.ModePerm != 0 {
		return 0, fmt.Errorf("invalid mode %q: permission bits only", s)
	}
	return mode, nil
}

// HomeDir returns the configured home override or the user's home directory
func (c *Config) HomeDir() (string, error) {
	if c.Home != "" {
		return ExpandPath(c.Home), nil
	}
	return os.UserHomeDir()
}

// GetStateDir returns the directory holding the lock file and history database
func (c *Config) GetStateDir() string {
	if c.StateDir != "" {
		return ExpandPath(c.StateDir)
	}
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "treemirror")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "treemirror")
	}
	return filepath.Join(os.TempDir(), "treemirror")
}

// GetHookBackupDir returns where replaced session hooks are kept,
// outside the hook directory the session runner reads
func (c *Config) GetHookBackupDir() string {
	return filepath.Join(c.GetStateDir(), "hook-backups")
}

// GetJob returns a job by name
func (c *Config) GetJob(name string) (*JobConfig, error) {
	for i := range c.Jobs {
		if c.Jobs[i].Name == name {
			return &c.Jobs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, name)
}

// GetEnabledJobs returns all enabled jobs in configuration order
func (c *Config) GetEnabledJobs() []JobConfig {
	var jobs []JobConfig
	for _, j := range c.Jobs {
		if j.IsEnabled() {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// BuildJob turns a job configuration into an immutable mirror job
func (c *Config) BuildJob(j JobConfig) (domain.MirrorJob, error) {
	mode, err := ParseMode(string(j.Mode))
	if err != nil {
		return domain.MirrorJob{}, fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}

	var policy domain.ProtectionPolicy = protect.None()
	if len(j.Protected) > 0 {
		home, err := c.HomeDir()
		if err != nil {
			return domain.MirrorJob{}, fmt.Errorf("resolving home directory: %w", err)
		}
		policy = protect.NewHomeNames(home, j.Protected)
	}

	job := domain.MirrorJob{
		Name:       j.Name,
		SourceRoot: ExpandPath(j.Source),
		DestRoot:   ExpandPath(j.Target),
		FileMode:   mode,
		Protection: policy,
		Ignore:     j.Ignore,
	}
	if err := job.Validate(); err != nil {
		return domain.MirrorJob{}, fmt.Errorf("job %s: %w", j.Name, err)
	}
	return job, nil
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
