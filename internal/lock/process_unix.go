//go:build unix

package lock

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processExists probes pid with signal 0
func processExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	// EPERM: alive but owned by another user
	return err == nil || errors.Is(err, unix.EPERM)
}
