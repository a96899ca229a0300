// file: internal/scanner/inode_windows.go
// version: 1.1.0
// guid: b2c3d4e5-f6a7-8901-bcde-f12345678901

//go:build windows

package scanner

import "os"

// fileIdentity is a no-op on Windows, so hard links are not collapsed there.
func fileIdentity(_ os.FileInfo) (identity, bool) {
	return identity{}, false
}
