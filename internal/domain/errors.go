package domain

import "errors"

// Filesystem errors - 檔案系統層錯誤
var (
	// ErrNotFound indicates the requested path does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates the path already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrPermissionDenied indicates insufficient permissions or a path escaping its root
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates expected a file but got a directory
	ErrNotFile = errors.New("not a file")
)

// Mirror errors - 安裝邏輯層錯誤
var (
	// ErrDestinationUnavailable indicates the destination root cannot be created or written
	ErrDestinationUnavailable = errors.New("destination unavailable")

	// ErrInsufficientSpace indicates the destination filesystem cannot hold the files to install
	ErrInsufficientSpace = errors.New("insufficient space on destination")

	// ErrInvalidJob indicates a malformed mirror job
	ErrInvalidJob = errors.New("invalid mirror job")

	// ErrInvalidHook indicates a malformed session hook entry
	ErrInvalidHook = errors.New("invalid session hook")
)

// Config errors - 設定檔錯誤
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrJobNotFound indicates a referenced job doesn't exist
	ErrJobNotFound = errors.New("job not found")
)
