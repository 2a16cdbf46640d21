package domain

import (
	"io/fs"
	"path/filepath"
)

// Permission modes used by the two kinds of mirrored trees
const (
	ModeData       fs.FileMode = 0o644
	ModeExecutable fs.FileMode = 0o755
)

// ProtectionPolicy decides whether a destination path is owned by another installer
// and must not be overwritten once it exists
type ProtectionPolicy interface {
	IsProtected(destRoot, relPath string) bool
}

// MirrorJob is the immutable configuration of one mirror operation
type MirrorJob struct {
	// Name identifies the job in logs and history
	Name string

	// SourceRoot is the tree to copy from; a missing root makes the job a no-op
	SourceRoot string

	// DestRoot is created on demand
	DestRoot string

	// FileMode is applied to every installed file
	FileMode fs.FileMode

	// Protection may be nil, meaning nothing is protected
	Protection ProtectionPolicy

	// Ignore holds glob patterns matched against base names and relative paths
	Ignore []string
}

// Validate checks if the job is properly configured
func (j MirrorJob) Validate() error {
	if j.Name == "" {
		return ErrInvalidJob
	}
	if j.SourceRoot == "" || j.DestRoot == "" {
		return ErrInvalidJob
	}
	if filepath.Clean(j.SourceRoot) == filepath.Clean(j.DestRoot) {
		return ErrInvalidJob // mirroring a tree onto itself would back up every file into itself
	}
	if j.FileMode&^fs.ModePerm != 0 || j.FileMode == 0 {
		return ErrInvalidJob
	}
	return nil
}

// IsProtected reports whether relPath under the job's destination is protected
func (j MirrorJob) IsProtected(relPath string) bool {
	if j.Protection == nil {
		return false
	}
	return j.Protection.IsProtected(j.DestRoot, relPath)
}

// HookEntry is an autostart fragment written into the session-hook directory
type HookEntry struct {
	Name     string `mapstructure:"name"`
	Priority int    `mapstructure:"priority"`
	Command  string `mapstructure:"command"`
}
