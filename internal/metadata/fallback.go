// file: internal/metadata/fallback.go
// version: 1.0.0
// guid: 1ad37c4f-8928-43a7-84bd-6d3f8ff447c5

package metadata

import (
	"fmt"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/jdfalk/music-organizer/internal/models"
	"go.senan.xyz/taglib"
)

// readMP3WithID3v2 reads MP3 tags using only the id3v2 library
func readMP3WithID3v2(path string) (models.TagInfo, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return models.TagInfo{}, fmt.Errorf("id3v2 open: %w", err)
	}
	defer id3tag.Close()

	year := yearFromDate(id3tag.GetTextFrame("TDRC").Text)
	if year == "" {
		year = yearFromDate(id3tag.Year())
	}

	artist := strings.TrimSpace(id3tag.Artist())
	if artist == "" {
		artist = strings.TrimSpace(id3tag.GetTextFrame("TPE2").Text)
	}

	return models.TagInfo{
		Artist:      artist,
		Title:       strings.TrimSpace(id3tag.Title()),
		Album:       strings.TrimSpace(id3tag.Album()),
		TrackNumber: trackFromPair(id3tag.GetTextFrame("TRCK").Text),
		Year:        year,
	}, nil
}

// readWithTaglib reads the property map TagLib exposes for any container
func readWithTaglib(path string) (models.TagInfo, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return models.TagInfo{}, fmt.Errorf("taglib read: %w", err)
	}

	get := func(key string) string {
		if vals := raw[key]; len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
		return ""
	}

	artist := get(taglib.Artist)
	if artist == "" {
		artist = get(taglib.AlbumArtist)
	}
	return models.TagInfo{
		Artist:      artist,
		Title:       get(taglib.Title),
		Album:       get(taglib.Album),
		TrackNumber: trackFromPair(get(taglib.TrackNumber)),
		Year:        yearFromDate(get(taglib.Date)),
	}, nil
}
