package adapter

import (
	"context"
	"io"
	"io/fs"

	"github.com/Ning0612/Treemirror/internal/domain"
)

// Adapter defines the filesystem operations the installer needs on a tree root
// All implementations must handle path normalization internally
// and return domain-level errors for consistent error handling
type Adapter interface {
	// List returns all entries directly under the given path
	// Path should be relative to the adapter's root
	// Returns domain.ErrNotFound if path doesn't exist
	// Returns domain.ErrNotDirectory if path is a file
	List(ctx context.Context, path string) ([]domain.FileInfo, error)

	// Read opens a file for reading
	// Caller is responsible for closing the reader
	// Returns domain.ErrNotFound if file doesn't exist
	// Returns domain.ErrNotFile if path is a directory
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Install atomically creates or replaces a file with the given permission bits
	// Parent directories are created automatically
	// Returns the number of bytes written
	Install(ctx context.Context, path string, r io.Reader, mode fs.FileMode) (int64, error)

	// CopyPreserving copies an existing file to a new path, keeping its mode and mtime
	// Returns domain.ErrAlreadyExists if the new path is taken
	CopyPreserving(ctx context.Context, from, to string) error

	// Rename moves a path aside within the root; used for directories and links
	// Returns domain.ErrAlreadyExists if the new path is taken
	Rename(ctx context.Context, from, to string) error

	// Stat returns metadata for a single path without following a final symlink
	// Returns domain.ErrNotFound if path doesn't exist
	Stat(ctx context.Context, path string) (domain.FileInfo, error)

	// Exists checks if a path exists
	Exists(ctx context.Context, path string) (bool, error)

	// Root returns the absolute root of the adapter
	Root() string

	// Close releases any resources held by the adapter
	Close() error
}

// Prechecker is implemented by adapters that can verify their root before
// any file is written
type Prechecker interface {
	// Writable returns domain.ErrPermissionDenied if the root cannot be written
	Writable() error

	// FreeBytes returns the space available to unprivileged users, or -1 if unknown
	FreeBytes() (int64, error)
}
