// file: internal/ai/guess.go
// version: 1.0.0
// guid: 0d5a7c3e-9f12-4b68-a4e0-2c8b6d1f9e57

// Package ai asks a language model to recover artist and title from a
// mangled filename.
package ai

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Guess is the model's reading of a filename. Every field may be empty.
type Guess struct {
	Artist             string `json:"artist"`
	Title              string `json:"title"`
	Album              string `json:"album"`
	LeadingTrackNumber string `json:"leading_track_number"`
}

// Usable reports whether the guess names both an artist and a title
func (g *Guess) Usable() bool {
	return g != nil && strings.TrimSpace(g.Artist) != "" && strings.TrimSpace(g.Title) != ""
}

// Keys the model has been seen to use for the track prefix
var trackKeys = []string{"leading_track_number", "original_prefix_number", "track_number", "track"}

// ParseGuess extracts the first well-formed JSON object from content and
// reads a guess from it. It returns nil when there is none.
func ParseGuess(content string) *Guess {
	obj, ok := ExtractJSONObject(content)
	if !ok {
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil
	}

	g := &Guess{
		Artist: stringField(raw["artist"]),
		Title:  stringField(raw["title"]),
		Album:  stringField(raw["album"]),
	}
	for _, k := range trackKeys {
		if v := stringField(raw[k]); v != "" {
			g.LeadingTrackNumber = v
			break
		}
	}
	return g
}

// stringField renders JSON strings and numbers; null, "null" and other
// placeholders become "".
func stringField(v any) string {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		switch strings.ToLower(s) {
		case "null", "none", "unknown", "n/a":
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// ExtractJSONObject returns the first balanced {...} span of s that is valid
// JSON. Code fences and surrounding prose are ignored.
func ExtractJSONObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end := matchBrace(s, start); end > start {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON strings are skipped.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
