// file: internal/scanner/inode_unix.go
// version: 1.1.0
// guid: a1b2c3d4-e5f6-7890-abcd-ef1234567890

//go:build !windows

package scanner

import (
	"os"
	"syscall"
)

// fileIdentity returns the device and inode of the given file info.
// Returns false if the underlying syscall type is unavailable.
func fileIdentity(info os.FileInfo) (identity, bool) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return identity{}, false
	}
	return identity{dev: uint64(sys.Dev), ino: uint64(sys.Ino)}, true
}
