// file: internal/tagger/write_id3.go
// version: 1.1.0
// guid: 0f4b9e1a-5d2c-4a77-9d63-2b1e7c8a4f10

package tagger

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/bogem/id3v2/v2"
)

const id3Magic = "ID3"

// writeID3 sets text frames on an MP3. Text frames replace any frame with the
// same ID, so repeated writes converge on the same tag. An ID3v2.2 tag is
// discarded and replaced by a fresh v2.4 tag holding only fields.
func writeID3(path string, fields []Field) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		// ID3v2.2 and older cannot be edited in place
		log.Printf("[WARN] tagger: %s has a pre-ID3v2.3 tag; frames other than the ones being written are dropped", path)
		if stripErr := stripID3v2Tag(path); stripErr != nil {
			return fmt.Errorf("strip unsupported ID3v2 tag: %w", stripErr)
		}
		tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	}
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	for _, f := range fields {
		tag.AddTextFrame(f.Name, id3v2.EncodingUTF8, f.Value)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// stripID3v2Tag removes a leading ID3v2 tag from an MP3 file
func stripID3v2Tag(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if len(data) < 10 || string(data[:3]) != id3Magic {
		return nil
	}

	// synchsafe size, 7 bits per byte
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	tagSize := size + 10
	if data[5]&0x10 != 0 {
		tagSize += 10
	}
	if tagSize >= len(data) {
		return fmt.Errorf("ID3v2 tag size (%d) exceeds file size (%d)", tagSize, len(data))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	return os.WriteFile(path, data[tagSize:], info.Mode())
}
