// file: internal/naming/naming.go
// version: 1.1.0
// guid: d070819a-3dcd-47b1-9d0a-a2e49f5bd3c4

// Package naming turns free-text metadata into safe path components.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// UnknownComponent replaces a component that sanitizes to nothing
	UnknownComponent = "Unknown"
	// UnknownArtist is the directory name used when no artist is known
	UnknownArtist = "Unknown Artist"
	// MaxTrackNumber is the largest track number accepted from a tag
	MaxTrackNumber = 999
)

var (
	separatorRunRe  = regexp.MustCompile(`[_ ]{2,}`)
	leadingTrackRe  = regexp.MustCompile(`^\s*(\d{1,3})\s*[-._ ]+\s*(.*)`)
	trackPrefixRe   = regexp.MustCompile(`(?i)^\s*(?:(?:track|tr|cd|disc)\s*)?\d{1,3}\s*[-._ ]+`)
	onlyDigitsRe    = regexp.MustCompile(`^\s*\d+\s*$`)
	trackNumberRe   = regexp.MustCompile(`^(\d{1,6})(?:\.\d+)?$`)
	filenameNoiseRe = regexp.MustCompile(`(?i)%20|[_.+]+`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

func isAllowedPunct(r rune) bool {
	switch r {
	case ' ', '.', '-', '(', ')', '[', ']':
		return true
	}
	return false
}

func isApostropheLike(r rune) bool {
	switch r {
	case '`', '´', '‘', '’', '\'':
		return true
	}
	return false
}

// SanitizeComponent maps name onto a character set that is safe for a single
// path component. Apostrophe-like characters survive as a plain apostrophe
// only when allowApostrophe is set. The result is never empty.
func SanitizeComponent(name string, allowApostrophe bool) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || isAllowedPunct(r):
			b.WriteRune(r)
		case isApostropheLike(r) && allowApostrophe:
			b.WriteRune('\'')
		default:
			b.WriteRune('_')
		}
	}

	out := separatorRunRe.ReplaceAllString(b.String(), "_")
	out = strings.Trim(out, "._ ")
	if out == "" {
		return UnknownComponent
	}
	return out
}

// FormatArtistForDirectory turns "Last, First" into "First Last".
// Anything else is returned unchanged; an empty name becomes UnknownArtist.
func FormatArtistForDirectory(name string) string {
	if strings.TrimSpace(name) == "" {
		return UnknownArtist
	}
	if strings.Count(name, ",") != 1 {
		return name
	}
	parts := strings.SplitN(name, ",", 2)
	last := strings.TrimSpace(parts[0])
	first := strings.TrimSpace(parts[1])
	if last == "" || first == "" {
		return name
	}
	return first + " " + last
}

// NormalizeTrackNumber renders a track number as a zero-padded two digit
// string. Values such as "3", "3/12" and "3.0" are accepted; anything else,
// including exponents, hex and numbers outside 1..MaxTrackNumber, reports
// false.
func NormalizeTrackNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "/"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" {
		return "", false
	}
	m := trackNumberRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > MaxTrackNumber {
		return "", false
	}
	return fmt.Sprintf("%02d", n), true
}

// LeadingTrackNumber extracts the digits of a "<digits><separator><rest>"
// filename prefix, zero-padded to two digits. It returns "" when the
// filename has no such prefix.
func LeadingTrackNumber(baseName string) string {
	m := leadingTrackRe.FindStringSubmatch(baseName)
	if m == nil {
		return ""
	}
	n, ok := NormalizeTrackNumber(m[1])
	if !ok {
		return ""
	}
	return n
}

// CleanFilename prepares a filename (without extension) for a language
// model query: track prefixes are stripped, separators become spaces and
// whitespace is collapsed.
func CleanFilename(baseName string) string {
	if onlyDigitsRe.MatchString(baseName) {
		return ""
	}
	s := baseName
	for {
		stripped := trackPrefixRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = filenameNoiseRe.ReplaceAllString(s, " ")
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	s = strings.Trim(s, " -")
	return s
}
