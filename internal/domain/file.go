package domain

import "io/fs"

// FileEntry is a regular file discovered under a mirror source root
type FileEntry struct {
	// AbsPath is the absolute path of the source file
	AbsPath string

	// RelPath is the slash-separated path relative to the source root
	RelPath string

	// Size in bytes at discovery time
	Size int64

	// Mode is the source file's mode (informational only, never propagated)
	Mode fs.FileMode
}

// FileInfo describes a path inside an adapter root
type FileInfo struct {
	// Path is the slash-separated path relative to the adapter root
	Path string

	IsDir     bool
	IsRegular bool
	Size      int64
	Mode      fs.FileMode
}
