// file: internal/musicbrainz/verifier.go
// version: 1.0.0
// guid: e27b4d90-1a6c-4f3e-8b25-7c9d0a3e5f14

package musicbrainz

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/jdfalk/music-organizer/internal/models"
	"github.com/jdfalk/music-organizer/internal/naming"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Verifier cross-checks an artist/title/album guess against MusicBrainz
type Verifier struct {
	client *Client
	limit  int
}

// NewVerifier creates a verifier backed by client
func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client, limit: 5}
}

// Verify searches for the recording and returns the top match as a
// candidate, or nil when the catalog has nothing. album may be empty.
func (v *Verifier) Verify(ctx context.Context, artist, title, album string) (*models.MetadataCandidate, error) {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" || title == "" {
		return nil, nil
	}

	recs, err := v.client.SearchRecordings(ctx, BuildQuery(artist, title, album), v.limit)
	if err != nil {
		return nil, fmt.Errorf("search recordings: %w", err)
	}
	if len(recs) == 0 && strings.TrimSpace(album) != "" {
		// a wrong album guess should not hide the recording
		log.Printf("[DEBUG] musicbrainz: no match with album %q, retrying without it", album)
		recs, err = v.client.SearchRecordings(ctx, BuildQuery(artist, title, ""), v.limit)
		if err != nil {
			return nil, fmt.Errorf("search recordings: %w", err)
		}
	}
	if len(recs) == 0 {
		return nil, nil
	}

	top := &recs[0]
	candidate := ToCandidate(top, album)
	candidate.ConfidenceNote = fmt.Sprintf("musicbrainz score %d, title distance %d, artist distance %d",
		top.Score, distance(title, top.Title), distance(artist, top.Artist))
	return candidate, nil
}

// BuildQuery renders a Lucene recording query of the form
// artist:"A" AND recording:"T" [AND release:"B"].
func BuildQuery(artist, title, album string) string {
	q := fmt.Sprintf(`artist:"%s" AND recording:"%s"`, escapeLucene(artist), escapeLucene(title))
	if album = strings.TrimSpace(album); album != "" {
		q += fmt.Sprintf(` AND release:"%s"`, escapeLucene(album))
	}
	return q
}

func escapeLucene(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// ToCandidate converts a recording into a candidate, taking album, track and
// year from the release that best matches albumHint. A recording with no
// releases keeps albumHint as its album.
func ToCandidate(rec *Recording, albumHint string) *models.MetadataCandidate {
	c := &models.MetadataCandidate{
		Artist: rec.Artist,
		Title:  rec.Title,
	}
	if rel := PickRelease(rec.Releases, albumHint); rel != nil {
		c.Album = rel.Title
		if n, ok := naming.NormalizeTrackNumber(rel.TrackNumber); ok {
			c.TrackNumber = n
		}
		c.Year = yearOf(rel.Date)
	} else {
		c.Album = strings.TrimSpace(albumHint)
	}
	if c.Year == "" {
		c.Year = yearOf(rec.FirstReleaseDate)
	}
	return c
}

// PickRelease returns the release whose title best fuzzy-matches hint, or
// the first release when there is no hint or nothing matches.
func PickRelease(releases []Release, hint string) *Release {
	if len(releases) == 0 {
		return nil
	}
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return &releases[0]
	}

	titles := make([]string, len(releases))
	for i, r := range releases {
		titles[i] = r.Title
	}

	if ranks := fuzzy.RankFindNormalizedFold(hint, titles); len(ranks) > 0 {
		sort.Sort(ranks)
		return &releases[ranks[0].OriginalIndex]
	}
	// hint may carry extra words such as "(Remastered)"
	for i, t := range titles {
		if t != "" && fuzzy.MatchNormalizedFold(t, hint) {
			return &releases[i]
		}
	}
	return &releases[0]
}

func distance(a, b string) int {
	return levenshtein.ComputeDistance(strings.ToLower(a), strings.ToLower(b))
}

// yearOf returns the four-digit year prefix of a MusicBrainz date
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	y := date[:4]
	for _, r := range y {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return y
}
