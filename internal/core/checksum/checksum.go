package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrTooLarge is returned when the input exceeds Options.MaxSize
var ErrTooLarge = errors.New("input exceeds checksum size limit")

// Options configures the checksum calculator
type Options struct {
	// MaxSize: inputs larger than this are not hashed (0 = unlimited)
	MaxSize int64

	// BufferSize: size of buffer for streaming reads
	BufferSize int
}

// DefaultOptions returns the recommended default options
// Dotfile trees are small; 16MB keeps the dry-run fast on stray binaries
func DefaultOptions() Options {
	return Options{
		MaxSize:    16 * 1024 * 1024,
		BufferSize: 32 * 1024,
	}
}

// Calculator computes content digests
type Calculator interface {
	// Sum returns the hex digest of everything read from r
	// Returns ErrTooLarge if r yields more than MaxSize bytes
	Sum(ctx context.Context, r io.Reader) (string, error)
}

// DefaultCalculator implements Calculator with streaming reads
type DefaultCalculator struct {
	opts Options
}

// NewCalculator creates a new calculator with the given options
func NewCalculator(opts Options) *DefaultCalculator {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 32 * 1024
	}
	return &DefaultCalculator{opts: opts}
}

// NewDefaultCalculator creates a calculator with default options
func NewDefaultCalculator() *DefaultCalculator {
	return NewCalculator(DefaultOptions())
}

// MaxSize returns the configured size limit (0 = unlimited)
func (c *DefaultCalculator) MaxSize() int64 {
	return c.opts.MaxSize
}

// Sum implements the Calculator interface with SHA-256
func (c *DefaultCalculator) Sum(ctx context.Context, r io.Reader) (string, error) {
	h := sha256.New()

	if c.opts.MaxSize > 0 {
		r = io.LimitReader(r, c.opts.MaxSize+1)
	}

	buffer := make([]byte, c.opts.BufferSize)
	var total int64

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := r.Read(buffer)
		if n > 0 {
			total += int64(n)
			if c.opts.MaxSize > 0 && total > c.opts.MaxSize {
				return "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, c.opts.MaxSize)
			}
			h.Write(buffer[:n])
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
