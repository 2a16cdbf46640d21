package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/Ning0612/Treemirror/internal/domain"
)

// Adapter implements the adapter.Adapter interface for local filesystem
type Adapter struct {
	root string
}

// New creates a new local filesystem adapter
// root must be an existing directory
func New(root string) (*Adapter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, domain.ErrNotDirectory
	}

	return &Adapter{root: absRoot}, nil
}

// resolvePath safely resolves a relative path to absolute path within root
// Returns error if path attempts to escape root directory
func (a *Adapter) resolvePath(relPath string) (string, error) {
	if relPath == "" || relPath == "." {
		return a.root, nil
	}

	relPath = filepath.Clean(filepath.FromSlash(relPath))

	if filepath.IsAbs(relPath) {
		return "", domain.ErrPermissionDenied
	}

	fullPath := filepath.Join(a.root, relPath)

	// filepath.Rel handles root="/a/root" vs fullPath="/a/root2"
	rel, err := filepath.Rel(a.root, fullPath)
	if err != nil {
		return "", domain.ErrPermissionDenied
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.ErrPermissionDenied
	}

	return fullPath, nil
}

// List returns all entries directly under the given path
func (a *Adapter) List(ctx context.Context, path string) ([]domain.FileInfo, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, a.mapError(err)
	}

	result := make([]domain.FileInfo, 0, len(entries))
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info, err := entry.Info()
		if err != nil {
			continue // entry vanished between ReadDir and Lstat
		}

		result = append(result, fileInfoFromOS(filepath.Join(path, entry.Name()), info))
	}

	return result, nil
}

// Read opens a file for reading
func (a *Adapter) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, a.mapError(err)
	}
	if info.IsDir() {
		return nil, domain.ErrNotFile
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, a.mapError(err)
	}

	return file, nil
}

// Install atomically writes r to path and sets its permission bits to mode
func (a *Adapter) Install(ctx context.Context, path string, r io.Reader, mode fs.FileMode) (int64, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, a.mapError(err)
	}

	pending, err := renameio.NewPendingFile(fullPath, renameio.WithPermissions(mode))
	if err != nil {
		return 0, a.mapError(err)
	}
	defer pending.Cleanup()

	n, err := io.Copy(pending, r)
	if err != nil {
		return n, err
	}

	// umask must not narrow the requested mode
	if err := pending.Chmod(mode.Perm()); err != nil {
		return n, a.mapError(err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return n, a.mapError(err)
	}

	return n, nil
}

// CopyPreserving copies from to a new file at to, keeping mode and modification time
func (a *Adapter) CopyPreserving(ctx context.Context, from, to string) error {
	fromPath, err := a.resolvePath(from)
	if err != nil {
		return err
	}
	toPath, err := a.resolvePath(to)
	if err != nil {
		return err
	}

	src, err := os.Open(fromPath)
	if err != nil {
		return a.mapError(err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return a.mapError(err)
	}
	if info.IsDir() {
		return domain.ErrNotFile
	}

	// O_EXCL: an earlier backup is never overwritten
	dst, err := os.OpenFile(toPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return a.mapError(err)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()

	if copyErr != nil {
		os.Remove(toPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(toPath)
		return closeErr
	}

	if err := os.Chmod(toPath, info.Mode().Perm()); err != nil {
		return a.mapError(err)
	}
	if err := os.Chtimes(toPath, info.ModTime(), info.ModTime()); err != nil {
		return a.mapError(err)
	}

	return nil
}

// Rename moves from to a new path inside the root without replacing anything
func (a *Adapter) Rename(ctx context.Context, from, to string) error {
	fromPath, err := a.resolvePath(from)
	if err != nil {
		return err
	}
	toPath, err := a.resolvePath(to)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(toPath); err == nil {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, to)
	}

	return a.mapError(os.Rename(fromPath, toPath))
}

// Stat returns metadata for a single path
func (a *Adapter) Stat(ctx context.Context, path string) (domain.FileInfo, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return domain.FileInfo{}, err
	}

	info, err := os.Lstat(fullPath)
	if err != nil {
		return domain.FileInfo{}, a.mapError(err)
	}

	return fileInfoFromOS(path, info), nil
}

// Exists checks if a path exists; a dangling symlink counts as existing
func (a *Adapter) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return false, err
	}

	_, err = os.Lstat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, a.mapError(err)
}

// Close releases any resources (no-op for local adapter)
func (a *Adapter) Close() error {
	return nil
}

// Root returns the root path of this adapter
func (a *Adapter) Root() string {
	return a.root
}

// Writable implements adapter.Prechecker
func (a *Adapter) Writable() error {
	if !writable(a.root) {
		return domain.ErrPermissionDenied
	}
	return nil
}

// FreeBytes implements adapter.Prechecker
func (a *Adapter) FreeBytes() (int64, error) {
	return freeBytes(a.root)
}

// fileInfoFromOS converts os.FileInfo to domain.FileInfo
func fileInfoFromOS(path string, info os.FileInfo) domain.FileInfo {
	return domain.FileInfo{
		Path:      filepath.ToSlash(path),
		IsDir:     info.IsDir(),
		IsRegular: info.Mode().IsRegular(),
		Size:      info.Size(),
		Mode:      info.Mode(),
	}
}

// mapError converts OS errors to domain errors, keeping the original in the chain
func (a *Adapter) mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
	}

	return err
}
