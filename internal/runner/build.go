// file: internal/runner/build.go
// version: 1.1.0
// guid: c61e0f4b-93a7-4d2e-8f15-7ab204d9e3c8

package runner

import (
	"io"

	"github.com/jdfalk/music-organizer/internal/ai"
	"github.com/jdfalk/music-organizer/internal/config"
	"github.com/jdfalk/music-organizer/internal/fingerprint"
	"github.com/jdfalk/music-organizer/internal/metadata"
	"github.com/jdfalk/music-organizer/internal/musicbrainz"
	"github.com/jdfalk/music-organizer/internal/organizer"
	"github.com/jdfalk/music-organizer/internal/resolver"
	"github.com/jdfalk/music-organizer/internal/tagger"
)

// Sources bundles the remote lookups built from a Config
type Sources struct {
	Fpcalc     *fingerprint.Fpcalc
	AcoustID   *fingerprint.AcoustIDClient
	Catalog    *musicbrainz.Client
	Identifier *fingerprint.Identifier
	Verifier   *musicbrainz.Verifier
	Guesser    *ai.OpenAIGuesser
}

// NewSources builds the lookup clients. Sources without credentials are
// still constructed; they report themselves unavailable and the pipeline
// skips them.
func NewSources(cfg config.Config) *Sources {
	ua := cfg.UserAgent()
	catalog := musicbrainz.NewClient(ua)
	fp := fingerprint.NewFpcalc(cfg.FpcalcPath, cfg.FpcalcTimeout)
	acoustID := fingerprint.NewAcoustIDClient(cfg.AcoustIDAPIKey, ua)

	return &Sources{
		Fpcalc:     fp,
		AcoustID:   acoustID,
		Catalog:    catalog,
		Identifier: fingerprint.NewIdentifier(fp, acoustID, catalog, cfg.FingerprintThreshold),
		Verifier:   musicbrainz.NewVerifier(catalog),
		Guesser:    ai.NewOpenAIGuesser(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	}
}

// FromConfig wires a runner with the production adapters
func FromConfig(cfg config.Config, out io.Writer) *Runner {
	src := NewSources(cfg)
	pipeline := resolver.New(
		metadata.NewReader(),
		src.Identifier,
		src.Guesser,
		src.Verifier,
		resolver.WithSourceTimeout(cfg.SourceTimeout),
	)
	org := organizer.NewOrganizer(cfg.DestPath, cfg.DryRun, cfg.PreserveApostrophes)

	opts := Options{
		Source:      cfg.MusicPath,
		Dest:        org.Root(),
		DryRun:      cfg.DryRun,
		Limit:       cfg.TestFileCount,
		Recursive:   cfg.Recursive,
		Extensions:  cfg.SupportedExtensions,
		ReportPath:  cfg.ReportPath,
		MetricsPath: cfg.MetricsPath,
		CacheStats:  src.Catalog.CacheStats,
	}
	return New(opts, pipeline, org, tagger.New(), out)
}
