// file: internal/fingerprint/identifier.go
// version: 1.0.0
// guid: b4d06e2a-9c13-4f87-a5b1-3e7c2f9d8a40

package fingerprint

import (
	"context"
	"fmt"
	"log"

	"github.com/jdfalk/music-organizer/internal/models"
	"github.com/jdfalk/music-organizer/internal/musicbrainz"
)

// DefaultThreshold is the minimum AcoustID score accepted
const DefaultThreshold = 0.5

// RecordingResolver fetches full recording details from the catalog
type RecordingResolver interface {
	GetRecording(ctx context.Context, mbid string) (*musicbrainz.Recording, error)
}

// Identifier combines fpcalc, AcoustID and the catalog into a single lookup
type Identifier struct {
	fpcalc    *Fpcalc
	acoustID  *AcoustIDClient
	catalog   RecordingResolver
	threshold float64
}

// NewIdentifier creates an identifier. A threshold outside (0, 1] falls back
// to DefaultThreshold.
func NewIdentifier(fp *Fpcalc, acoustID *AcoustIDClient, catalog RecordingResolver, threshold float64) *Identifier {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Identifier{fpcalc: fp, acoustID: acoustID, catalog: catalog, threshold: threshold}
}

// Available reports why fingerprinting cannot run, or nil when it can
func (i *Identifier) Available(ctx context.Context) error {
	if !i.acoustID.HasKey() {
		return ErrNoCredential
	}
	return i.fpcalc.Probe(ctx)
}

// Identify fingerprints the file and resolves the best AcoustID match
// through the catalog. It returns nil when no match clears the threshold.
// The returned candidate may be partial; callers check sufficiency.
func (i *Identifier) Identify(ctx context.Context, path string) (*models.MetadataCandidate, error) {
	fp, err := i.fpcalc.Fingerprint(ctx, path)
	if err != nil {
		return nil, err
	}

	matches, err := i.acoustID.Lookup(ctx, fp)
	if err != nil {
		return nil, fmt.Errorf("acoustid lookup: %w", err)
	}

	best := BestMatch(matches)
	if best == nil {
		log.Printf("[DEBUG] fingerprint: no acoustid match for %s", path)
		return nil, nil
	}
	if best.Score < i.threshold {
		log.Printf("[DEBUG] fingerprint: best score %.2f below threshold %.2f for %s", best.Score, i.threshold, path)
		return nil, nil
	}

	var partial *models.MetadataCandidate
	for _, mr := range best.Recordings {
		c := i.resolve(ctx, mr)
		c.ConfidenceNote = fmt.Sprintf("acoustid score %.2f, recording %s", best.Score, mr.ID)
		if c.Sufficient() {
			return c, nil
		}
		if partial == nil {
			partial = c
		}
	}
	return partial, nil
}

// resolve asks the catalog for the recording, falling back to the names
// AcoustID itself returned when the catalog is unreachable.
func (i *Identifier) resolve(ctx context.Context, mr MatchRecording) *models.MetadataCandidate {
	fallback := &models.MetadataCandidate{Artist: mr.Artist(), Title: mr.Title}
	if i.catalog == nil || mr.ID == "" {
		return fallback
	}

	rec, err := i.catalog.GetRecording(ctx, mr.ID)
	if err != nil {
		log.Printf("[WARN] fingerprint: catalog lookup for recording %s failed: %v", mr.ID, err)
		return fallback
	}

	c := musicbrainz.ToCandidate(rec, "")
	if c.Artist == "" {
		c.Artist = fallback.Artist
	}
	if c.Title == "" {
		c.Title = fallback.Title
	}
	return c
}

// BestMatch returns the highest scoring match that links at least one
// recording, or nil.
func BestMatch(matches []Match) *Match {
	var best *Match
	for idx := range matches {
		m := &matches[idx]
		if len(m.Recordings) == 0 {
			continue
		}
		if best == nil || m.Score > best.Score {
			best = m
		}
	}
	return best
}
