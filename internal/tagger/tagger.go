// file: internal/tagger/tagger.go
// version: 2.1.0
// guid: 3b4c5d6e-7f8a-9b0c-1d2e-3f4a5b6c7d8e

// Package tagger rewrites the artist, title, album, track and year tags of
// organized files.
package tagger

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/jdfalk/music-organizer/internal/models"
)

// Field is one tag written (or, in a dry run, that would be written) using
// the container's native field name.
type Field struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// String renders the field as NAME=value
func (f Field) String() string {
	return f.Name + "=" + f.Value
}

// container selects the writer and the naming scheme for an extension
type container int

const (
	containerID3 container = iota
	containerVorbis
	containerTaglib
)

func containerFor(path string) container {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return containerID3
	case ".flac":
		return containerVorbis
	default:
		return containerTaglib
	}
}

// Tagger writes resolved metadata into audio files
type Tagger struct{}

// New creates a tag writer
func New() *Tagger {
	return &Tagger{}
}

// Write stores the non-empty fields of candidate in the file at path. Fields
// the candidate leaves empty, and all unrelated tags, are left untouched,
// except in an MP3 whose ID3v2.2 tag cannot be edited and is replaced.
// Writing the same candidate twice yields the same tag values, not
// necessarily identical bytes, since frame order may change.
// With dryRun set nothing is opened for writing; the returned fields are
// what a real run would write.
func (t *Tagger) Write(path string, candidate *models.MetadataCandidate, dryRun bool) ([]Field, error) {
	if candidate == nil {
		return nil, fmt.Errorf("no metadata to write for %s", path)
	}

	kind := containerFor(path)
	fields := fieldsFor(kind, candidate)
	if len(fields) == 0 {
		return nil, nil
	}

	if dryRun {
		log.Printf("[INFO] tagger: dry run, would write %d tags to %s", len(fields), path)
		return fields, nil
	}

	var err error
	switch kind {
	case containerID3:
		err = writeID3(path, fields)
	case containerVorbis:
		err = writeVorbis(path, fields)
	default:
		err = writeTaglib(path, fields)
	}
	if err != nil {
		return nil, fmt.Errorf("write tags to %s: %w", path, err)
	}

	log.Printf("[DEBUG] tagger: wrote %d tags to %s", len(fields), path)
	return fields, nil
}

// fieldsFor maps candidate values onto native field names for a container,
// skipping empty values.
func fieldsFor(kind container, c *models.MetadataCandidate) []Field {
	var names [5]string
	switch kind {
	case containerID3:
		names = [5]string{"TPE1", "TIT2", "TALB", "TRCK", "TDRC"}
	default:
		names = [5]string{"ARTIST", "TITLE", "ALBUM", "TRACKNUMBER", "DATE"}
	}
	values := [5]string{c.Artist, c.Title, c.Album, c.TrackNumber, c.Year}

	fields := make([]Field, 0, len(names))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		fields = append(fields, Field{Name: names[i], Value: v})
	}
	return fields
}
