//go:build windows

package jsonfile

import (
	"os"

	"golang.org/x/sys/windows"
)

// lockRange spans the largest lockable range, so the lock covers the whole file.
const lockRange = ^uint32(0)

func lockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, lockRange, lockRange, ol)
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockRange, lockRange, ol)
}
