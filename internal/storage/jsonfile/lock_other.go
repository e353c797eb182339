//go:build !unix && !windows

package jsonfile

import "os"

// Platforms without advisory locks (js, wasip1, plan9) rely on a single
// chatdo process owning the file.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
