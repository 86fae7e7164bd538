//go:build linux

package adapters

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// SetSubreaper sets the current process as a child subreaper.
// This allows orphaned child processes to be reparented to this process
// instead of init (PID 1). Available on Linux >= 3.4.
func (m *UnixSignalManager) SetSubreaper() error {
	return unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0)
}

// ClearSubreaper clears the child subreaper flag.
func (m *UnixSignalManager) ClearSubreaper() error {
	return unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 0, 0, 0, 0)
}

// IsSubreaper returns true if the current process is a child subreaper.
func (m *UnixSignalManager) IsSubreaper() (bool, error) {
	var flag int
	if err := unix.Prctl(unix.PR_GET_CHILD_SUBREAPER, uintptr(unsafe.Pointer(&flag)), 0, 0, 0); err != nil {
		return false, err
	}
	return flag != 0, nil
}
