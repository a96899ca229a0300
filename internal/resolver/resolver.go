// file: internal/resolver/resolver.go
// version: 1.0.0
// guid: 5e0c8a2f-7b14-4d39-9a6e-c1f3b8d2e047

// Package resolver decides the metadata of a track by consulting its local
// tags, an acoustic fingerprint lookup and a language-model guess verified
// against the catalog, in that order.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jdfalk/music-organizer/internal/ai"
	"github.com/jdfalk/music-organizer/internal/models"
	"github.com/jdfalk/music-organizer/internal/naming"
)

// DefaultSourceTimeout bounds each call to a remote source
const DefaultSourceTimeout = 60 * time.Second

// TagReader reads embedded tags. It never fails; unreadable files yield an
// empty TagInfo.
type TagReader interface {
	Read(path string) models.TagInfo
}

// FingerprintIdentifier looks a file up by its audio content
type FingerprintIdentifier interface {
	Available(ctx context.Context) error
	Identify(ctx context.Context, path string) (*models.MetadataCandidate, error)
}

// Guesser reads artist and title out of a filename fragment
type Guesser interface {
	Enabled() bool
	Guess(ctx context.Context, fragment string) (*ai.Guess, error)
}

// CatalogVerifier confirms a guess against the music catalog
type CatalogVerifier interface {
	Verify(ctx context.Context, artist, title, album string) (*models.MetadataCandidate, error)
}

// Pipeline runs the resolution stages for one track at a time. Any of the
// identifier, guesser and verifier may be nil, in which case the stages
// that need them are skipped.
type Pipeline struct {
	tags        TagReader
	fingerprint FingerprintIdentifier
	guesser     Guesser
	verifier    CatalogVerifier
	timeout     time.Duration
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSourceTimeout sets the deadline given to every remote call
func WithSourceTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a pipeline
func New(tags TagReader, fingerprint FingerprintIdentifier, guesser Guesser, verifier CatalogVerifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		tags:        tags,
		fingerprint: fingerprint,
		guesser:     guesser,
		verifier:    verifier,
		timeout:     DefaultSourceTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run carries the state of one resolution
type run struct {
	track    *models.TrackRecord
	attempts []models.Attempt
	partial  *models.MetadataCandidate
}

func (r *run) record(stage models.Stage, outcome models.AttemptOutcome, detail string) {
	r.attempts = append(r.attempts, models.Attempt{Stage: stage, Outcome: outcome, Detail: detail})
}

// keep remembers the most recent partial candidate for diagnostics
func (r *run) keep(c *models.MetadataCandidate) {
	if c != nil && (c.Artist != "" || c.Title != "" || c.Album != "") {
		r.partial = c
	}
}

func (r *run) resolved(c *models.MetadataCandidate) models.ResolutionResult {
	repair(c, r.track)
	return models.ResolutionResult{Status: models.StatusResolved, Candidate: c, Attempts: r.attempts}
}

// Resolve tries each stage in priority order and returns the first
// sufficient candidate, repaired for handoff to the organizer. Source
// failures never escape; they are recorded as failed attempts.
func (p *Pipeline) Resolve(ctx context.Context, track *models.TrackRecord) models.ResolutionResult {
	r := &run{track: track}

	if c := p.localTags(r); c != nil {
		return r.resolved(c)
	}
	if c := p.fingerprintStage(ctx, r); c != nil {
		return r.resolved(c)
	}
	if c := p.languageModelStage(ctx, r); c != nil {
		return r.resolved(c)
	}

	log.Printf("[INFO] resolver: %s unresolved after %d stages", track.FileName(), len(r.attempts))
	return models.ResolutionResult{Status: models.StatusUnresolved, Candidate: r.partial, Attempts: r.attempts}
}

func (p *Pipeline) localTags(r *run) *models.MetadataCandidate {
	tags := p.tags.Read(r.track.Path)
	r.track.LocalTags = tags

	if tags.IsEmpty() {
		r.record(models.StageLocalTags, models.OutcomeNoMatch, "no tags")
		return nil
	}
	c := models.CandidateFromTags(tags)
	if !c.Sufficient() {
		r.record(models.StageLocalTags, models.OutcomeNoMatch, "missing "+missingFields(c))
		r.keep(c)
		return nil
	}
	r.record(models.StageLocalTags, models.OutcomeAccepted, "")
	log.Printf("[DEBUG] resolver: %s resolved from local tags", r.track.FileName())
	return c
}

func (p *Pipeline) fingerprintStage(ctx context.Context, r *run) *models.MetadataCandidate {
	if p.fingerprint == nil {
		r.record(models.StageFingerprint, models.OutcomeSkipped, "no identifier configured")
		return nil
	}

	if err := p.call(ctx, func(ctx context.Context) error { return p.fingerprint.Available(ctx) }); err != nil {
		r.record(models.StageFingerprint, models.OutcomeSkipped, err.Error())
		return nil
	}

	var c *models.MetadataCandidate
	err := p.call(ctx, func(ctx context.Context) error {
		var err error
		c, err = p.fingerprint.Identify(ctx, r.track.Path)
		return err
	})
	if err != nil {
		log.Printf("[WARN] resolver: fingerprint lookup failed for %s: %v", r.track.FileName(), err)
		r.record(models.StageFingerprint, models.OutcomeFailed, err.Error())
		return nil
	}
	if c == nil {
		r.record(models.StageFingerprint, models.OutcomeNoMatch, "no confident match")
		return nil
	}
	if !c.Sufficient() {
		r.record(models.StageFingerprint, models.OutcomeNoMatch, "missing "+missingFields(c))
		r.keep(c)
		return nil
	}

	c.Source = models.SourceFingerprintCatalog
	r.record(models.StageFingerprint, models.OutcomeAccepted, c.ConfidenceNote)
	log.Printf("[INFO] resolver: %s identified by fingerprint as %s - %s", r.track.FileName(), c.Artist, c.Title)
	return c
}

func (p *Pipeline) languageModelStage(ctx context.Context, r *run) *models.MetadataCandidate {
	if p.guesser == nil || !p.guesser.Enabled() {
		r.record(models.StageLanguageModel, models.OutcomeSkipped, "no language model credential")
		return nil
	}
	if p.verifier == nil {
		r.record(models.StageLanguageModel, models.OutcomeSkipped, "no catalog verifier configured")
		return nil
	}

	fragment := naming.CleanFilename(r.track.BaseName)
	if fragment == "" {
		r.record(models.StageLanguageModel, models.OutcomeNoMatch, "filename empty after cleaning")
		return nil
	}

	var guess *ai.Guess
	err := p.call(ctx, func(ctx context.Context) error {
		var err error
		guess, err = p.guesser.Guess(ctx, fragment)
		return err
	})
	if err != nil {
		log.Printf("[WARN] resolver: language model failed for %s: %v", r.track.FileName(), err)
		r.record(models.StageLanguageModel, models.OutcomeFailed, err.Error())
		return nil
	}
	if !guess.Usable() {
		r.record(models.StageLanguageModel, models.OutcomeNoMatch, "guess lacks artist or title")
		if guess != nil {
			r.keep(guessCandidate(guess))
		}
		return nil
	}

	var verified *models.MetadataCandidate
	err = p.call(ctx, func(ctx context.Context) error {
		var err error
		verified, err = p.verifier.Verify(ctx, guess.Artist, guess.Title, guess.Album)
		return err
	})
	if err != nil {
		log.Printf("[WARN] resolver: catalog verification failed for %s: %v", r.track.FileName(), err)
		r.record(models.StageLanguageModel, models.OutcomeFailed, err.Error())
		r.keep(guessCandidate(guess))
		return nil
	}
	if !verified.Sufficient() {
		detail := "catalog has no match"
		if verified != nil {
			detail = "catalog match missing " + missingFields(verified)
		}
		r.record(models.StageLanguageModel, models.OutcomeNoMatch, detail)
		r.keep(guessCandidate(guess))
		r.keep(verified)
		return nil
	}

	c := verified.Clone()
	c.Source = models.SourceLanguageModelCatalog
	if c.TrackNumber == "" && guess.LeadingTrackNumber != "" {
		if n, ok := naming.NormalizeTrackNumber(guess.LeadingTrackNumber); ok {
			c.TrackNumber = n
		}
	}
	r.record(models.StageLanguageModel, models.OutcomeAccepted, c.ConfidenceNote)
	log.Printf("[INFO] resolver: %s identified by language model as %s - %s", r.track.FileName(), c.Artist, c.Title)
	return c
}

// call runs fn under its own deadline. A deadline hit is reported even when
// fn itself returned nil.
func (p *Pipeline) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := fn(ctx)
	if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", p.timeout, err)
	}
	return err
}

// repair normalizes the track number and fills gaps from the filename and
// the original tags.
func repair(c *models.MetadataCandidate, track *models.TrackRecord) {
	if c.TrackNumber != "" {
		n, ok := naming.NormalizeTrackNumber(c.TrackNumber)
		if !ok {
			log.Printf("[DEBUG] resolver: dropping malformed track number %q", c.TrackNumber)
		}
		c.TrackNumber = n
	}
	if c.TrackNumber == "" {
		c.TrackNumber = naming.LeadingTrackNumber(track.BaseName)
	}
	if strings.TrimSpace(c.Album) == "" && track.LocalTags.Album != "" {
		c.Album = strings.TrimSpace(track.LocalTags.Album)
	}
}

func guessCandidate(g *ai.Guess) *models.MetadataCandidate {
	return &models.MetadataCandidate{
		Artist:         strings.TrimSpace(g.Artist),
		Title:          strings.TrimSpace(g.Title),
		Album:          strings.TrimSpace(g.Album),
		TrackNumber:    g.LeadingTrackNumber,
		Source:         models.SourceLanguageModelCatalog,
		ConfidenceNote: "unverified language model guess",
	}
}

func missingFields(c *models.MetadataCandidate) string {
	var missing []string
	if strings.TrimSpace(c.Artist) == "" {
		missing = append(missing, "artist")
	}
	if strings.TrimSpace(c.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(c.Album) == "" {
		missing = append(missing, "album")
	}
	return strings.Join(missing, ", ")
}
