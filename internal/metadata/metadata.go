// file: internal/metadata/metadata.go
// version: 2.0.0
// guid: 9d0e1f2a-3b4c-5d6e-7f8a-9b0c1d2e3f4a

package metadata

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/jdfalk/music-organizer/internal/models"
)

// Reader reads the tags already embedded in audio files. Read never fails:
// unsupported formats, missing headers and corrupt containers all produce an
// empty TagInfo.
type Reader struct{}

// NewReader creates a tag reader
func NewReader() *Reader {
	return &Reader{}
}

// Read returns the artist, title, album, track number and year tags of path
func (r *Reader) Read(path string) models.TagInfo {
	info, err := ExtractMetadata(path)
	if err != nil {
		log.Printf("[DEBUG] metadata: no usable tags in %s: %v", path, err)
		return models.TagInfo{}
	}
	return info
}

// ExtractMetadata reads tags with dhowden/tag and falls back to a
// format-specific reader when the generic parser rejects the file.
func ExtractMetadata(filePath string) (models.TagInfo, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return models.TagInfo{}, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return readFallback(filePath, err)
	}

	track, _ := m.Track()
	info := models.TagInfo{
		Artist:      strings.TrimSpace(m.Artist()),
		Title:       strings.TrimSpace(m.Title()),
		Album:       strings.TrimSpace(m.Album()),
		TrackNumber: trackString(track),
		Year:        yearString(m.Year()),
	}
	if info.Artist == "" {
		info.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	return info, nil
}

// readFallback dispatches on extension once dhowden/tag has failed
func readFallback(filePath string, cause error) (models.TagInfo, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		// dhowden/tag trips over some UTF-16 encoded ID3 frames
		return readMP3WithID3v2(filePath)
	case ".m4a", ".mp4", ".aac", ".flac", ".ogg", ".oga", ".opus", ".wma", ".wav":
		return readWithTaglib(filePath)
	}
	return models.TagInfo{}, fmt.Errorf("unsupported tag container: %w", cause)
}

// trackString renders a positive track number, or "" when absent
func trackString(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// yearString keeps four-digit years only
func yearString(y int) string {
	if y < 1000 || y > 9999 {
		return ""
	}
	return strconv.Itoa(y)
}

// yearFromDate extracts the leading four-digit year from a date string
// such as "1989", "1989-04-24" or "1989/04".
func yearFromDate(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return ""
	}
	return yearString(y)
}

// trackFromPair extracts N from "N" or "N/Total"
func trackFromPair(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return trackString(n)
}
