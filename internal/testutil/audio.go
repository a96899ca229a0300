// file: internal/testutil/audio.go
// version: 1.0.0
// guid: deee9c08-9baf-45fb-a6fd-c25201a71f86

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/stretchr/testify/require"
)

// MP3Tags are the ID3 fields WriteMP3 can populate
type MP3Tags struct {
	Artist string
	Title  string
	Album  string
	Track  string
	Year   string
}

// mp3Frame returns a single silent MPEG-1 Layer III frame
func mp3Frame() []byte {
	frame := make([]byte, 417)
	frame[0] = 0xff
	frame[1] = 0xfb
	frame[2] = 0x90
	frame[3] = 0x00
	return frame
}

// WriteMP3 creates a minimal MP3 file at path, tagged with tags when any field is set
func WriteMP3(t *testing.T, path string, tags MP3Tags) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, mp3Frame(), 0644))

	if tags == (MP3Tags{}) {
		return path
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if tags.Artist != "" {
		tag.SetArtist(tags.Artist)
	}
	if tags.Title != "" {
		tag.SetTitle(tags.Title)
	}
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}
	if tags.Track != "" {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, tags.Track)
	}
	if tags.Year != "" {
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, tags.Year)
	}
	require.NoError(t, tag.Save())
	return path
}

// WriteFile creates a small non-audio file, creating parent directories
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Library holds a temporary source and destination tree
type Library struct {
	Source string
	Dest   string
}

// SetupLibrary creates empty source and destination directories
func SetupLibrary(t *testing.T) Library {
	t.Helper()
	base := t.TempDir()
	lib := Library{
		Source: filepath.Join(base, "incoming"),
		Dest:   filepath.Join(base, "library"),
	}
	require.NoError(t, os.MkdirAll(lib.Source, 0755))
	require.NoError(t, os.MkdirAll(lib.Dest, 0755))
	return lib
}
