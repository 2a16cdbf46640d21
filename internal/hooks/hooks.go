// Package hooks writes session-hook fragments: executable scripts in a
// well-known directory that the login session runs in file-name order.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Ning0612/Treemirror/internal/adapter/local"
	"github.com/Ning0612/Treemirror/internal/core/backup"
	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/logger"
)

// FragmentMode is applied to every installed fragment
const FragmentMode = 0o755

// backupMode is applied to replaced fragments kept in the backup directory
const backupMode = 0o644

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	fragmentPattern = regexp.MustCompile(`^[0-9]{2}-[A-Za-z0-9._-]+$`)
)

// Validate checks a hook entry
func Validate(h domain.HookEntry) error {
	if !namePattern.MatchString(h.Name) {
		return fmt.Errorf("%w: bad name %q", domain.ErrInvalidHook, h.Name)
	}
	if h.Priority < 0 || h.Priority > 99 {
		return fmt.Errorf("%w: %s priority %d outside 0-99", domain.ErrInvalidHook, h.Name, h.Priority)
	}
	if strings.TrimSpace(h.Command) == "" {
		return fmt.Errorf("%w: %s has no command", domain.ErrInvalidHook, h.Name)
	}
	return nil
}

// FileName returns the fragment name, "NN-name"
func FileName(h domain.HookEntry) string {
	return fmt.Sprintf("%02d-%s", h.Priority, h.Name)
}

// Script renders the fragment body
func Script(h domain.HookEntry) []byte {
	return []byte("#!/bin/sh\n" + strings.TrimRight(h.Command, "\n") + "\n")
}

// InstallResult describes what Install did
type InstallResult struct {
	Path       string
	BackupPath string
	Changed    bool
}

// Writer installs fragments into one hook directory.
// Replaced fragments go to backupDir, never into dir: the session runner
// would source them along with the live fragments.
type Writer struct {
	dir       string
	backupDir string
	namer     *backup.Namer
}

// NewWriter creates a Writer; a nil clock uses the wall clock
func NewWriter(dir, backupDir string, clock backup.Clock) *Writer {
	return &Writer{
		dir:       dir,
		backupDir: backupDir,
		namer:     backup.NewNamer(clock),
	}
}

// Dir returns the hook directory
func (w *Writer) Dir() string {
	return w.dir
}

// Install writes the fragment for h
// An identical fragment is left alone; a different one is backed up first.
func (w *Writer) Install(ctx context.Context, h domain.HookEntry) (InstallResult, error) {
	if err := Validate(h); err != nil {
		return InstallResult{}, err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return InstallResult{}, fmt.Errorf("%w: %s: %w", domain.ErrDestinationUnavailable, w.dir, err)
	}
	dir, err := local.New(w.dir)
	if err != nil {
		return InstallResult{}, fmt.Errorf("%w: %s: %w", domain.ErrDestinationUnavailable, w.dir, err)
	}
	defer dir.Close()

	name := FileName(h)
	result := InstallResult{Path: filepath.Join(w.dir, name)}
	body := Script(h)

	current, err := readFragment(ctx, dir, name)
	if err != nil {
		return result, err
	}

	if current != nil {
		if bytes.Equal(current.body, body) && current.info.Mode.Perm() == FragmentMode {
			logger.Get().Debug("hook unchanged", "hook", name)
			return result, nil
		}

		backupPath, err := w.backup(ctx, name, current)
		if err != nil {
			return result, err
		}
		result.BackupPath = backupPath
	}

	if _, err := dir.Install(ctx, name, bytes.NewReader(body), FragmentMode); err != nil {
		return result, fmt.Errorf("install hook %s: %w", name, err)
	}
	result.Changed = true

	logger.Get().Info("hook installed", "hook", name, "backup", result.BackupPath != "")
	return result, nil
}

// backup keeps the replaced fragment under backupDir
func (w *Writer) backup(ctx context.Context, name string, current *fragment) (string, error) {
	if w.backupDir == "" {
		return "", fmt.Errorf("backup %s: no backup directory configured", name)
	}
	if !current.info.IsRegular {
		return "", fmt.Errorf("backup %s: %w", name, domain.ErrNotFile)
	}

	if err := os.MkdirAll(w.backupDir, 0755); err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDestinationUnavailable, w.backupDir, err)
	}
	store, err := local.New(w.backupDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrDestinationUnavailable, w.backupDir, err)
	}
	defer store.Close()

	backupName := w.namer.Name(name, func(candidate string) bool {
		ok, err := store.Exists(ctx, candidate)
		return ok || err != nil
	})
	if _, err := store.Install(ctx, backupName, bytes.NewReader(current.body), backupMode); err != nil {
		return "", fmt.Errorf("backup %s: %w", name, err)
	}
	return filepath.Join(w.backupDir, backupName), nil
}

// List returns fragment file names in execution order
func (w *Writer) List(ctx context.Context) ([]string, error) {
	dir, err := local.New(w.dir)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	items, err := dir.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, item := range items {
		base := filepath.Base(item.Path)
		if item.IsDir || !fragmentPattern.MatchString(base) || strings.Contains(base, backup.Suffix) {
			continue
		}
		names = append(names, base)
	}
	sort.Strings(names)
	return names, nil
}

type fragment struct {
	info domain.FileInfo
	body []byte
}

// readFragment returns nil when the fragment does not exist
func readFragment(ctx context.Context, dir *local.Adapter, name string) (*fragment, error) {
	info, err := dir.Stat(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsRegular {
		return &fragment{info: info}, nil
	}

	r, err := dir.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read hook %s: %w", name, err)
	}
	return &fragment{info: info, body: body}, nil
}
