// file: internal/fileops/hash.go
// version: 2.0.0
// guid: 0a1b2c3d-4e5f-6a7b-8c9d-0e1f2a3b4c5d

package fileops

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ComputeFileHash computes the SHA256 hash of a file
func ComputeFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// GetFileSize returns the size of a file in bytes
func GetFileSize(filePath string) (int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// VerifyHash checks that the file at path hashes to expected
func VerifyHash(path, expected string) error {
	actual, err := ComputeFileHash(path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	if actual != expected {
		return fmt.Errorf("%w: %s has %s, expected %s", ErrChecksumMismatch, path, actual, expected)
	}
	return nil
}
