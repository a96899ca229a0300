// file: internal/fileops/move.go
// version: 1.1.0
// guid: 8f7e6d5c-4b3a-2918-7f6e-5d4c3b2a1908

// Package fileops moves audio files without ever overwriting an existing
// file.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"syscall"
)

var (
	// ErrTargetExists is returned when the destination path is occupied
	ErrTargetExists = errors.New("target already exists")
	// ErrChecksumMismatch is returned when a copied file does not match its source
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// rename is replaced in tests to simulate cross-device moves
var rename = os.Rename

// Exists reports whether something occupies path
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Move relocates src to dst. The parent of dst must exist. A rename is tried
// first; across filesystems the file is copied, verified by SHA256 and only
// then removed from src.
func Move(src, dst string) error {
	if Exists(dst) {
		return fmt.Errorf("%w: %s", ErrTargetExists, dst)
	}

	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}

	log.Printf("[DEBUG] fileops: %s is on another filesystem, copying", dst)
	return copyVerifyRemove(src, dst)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

func copyVerifyRemove(src, dst string) error {
	srcHash, err := ComputeFileHash(src)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}

	if err := copyFile(src, dst); err != nil {
		// dst belongs to someone else when the exclusive create lost a race
		if !errors.Is(err, ErrTargetExists) {
			_ = os.Remove(dst)
		}
		return fmt.Errorf("failed to copy file: %w", err)
	}

	if err := VerifyHash(dst, srcHash); err != nil {
		_ = os.Remove(dst)
		return err
	}

	if err := os.Remove(src); err != nil {
		// keep exactly one copy
		_ = os.Remove(dst)
		return fmt.Errorf("failed to remove original after copy: %w", err)
	}
	return nil
}

// copyFile copies src to a new file at dst, failing if dst exists
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, sourceInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrTargetExists, dst)
		}
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	// Sync to ensure data is written to disk
	if err := destFile.Sync(); err != nil {
		return err
	}
	return nil
}

// EnsureDir creates dir and its parents when missing
func EnsureDir(dir string) error {
	if err := os.MkdirAll(filepath.Clean(dir), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
