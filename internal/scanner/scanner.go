// file: internal/scanner/scanner.go
// version: 2.0.0
// guid: 3c4d5e6f-7a8b-9c0d-1e2f-3a4b5c6d7e8f

// Package scanner finds the audio files a run will process.
package scanner

import (
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
)

// identity distinguishes hard links to the same file
type identity struct {
	dev uint64
	ino uint64
}

// Options controls a scan
type Options struct {
	// Extensions are lower-case with a leading dot
	Extensions []string
	// Recursive descends into subdirectories; otherwise only the top
	// level of the root is listed
	Recursive bool
	// SkipDirs are absolute directories that are never entered, such as
	// the quarantine folder when it lives under the source root
	SkipDirs []string
}

// FindAudioFiles returns the absolute paths of supported audio files under
// root, sorted so runs are reproducible. Hidden files and directories are
// ignored and hard links to a file already listed are skipped.
func FindAudioFiles(root string, opts Options) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	skip := make(map[string]struct{}, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip[filepath.Clean(abs)] = struct{}{}
		}
	}

	seen := make(map[identity]struct{})
	var files []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			log.Printf("[WARN] scanner: skipping %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, ok := skip[filepath.Clean(path)]; ok {
				return filepath.SkipDir
			}
			if !opts.Recursive || isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(d.Name()) || !d.Type().IsRegular() {
			return nil
		}
		if _, ok := exts[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		if info, err := d.Info(); err == nil {
			if id, ok := fileIdentity(info); ok {
				if _, dup := seen[id]; dup {
					log.Printf("[DEBUG] scanner: %s is a hard link to a file already listed", path)
					return nil
				}
				seen[id] = struct{}{}
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(files)
	log.Printf("[INFO] scanner: found %d audio files under %s", len(files), root)
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Limit truncates files to at most n entries; n <= 0 means no limit
func Limit(files []string, n int) []string {
	if n <= 0 || n >= len(files) {
		return files
	}
	return files[:n]
}

