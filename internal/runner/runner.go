// file: internal/runner/runner.go
// version: 1.1.0
// guid: 2f7c1e9a-4b6d-4a08-8c35-d91e0b7a6f24

// Package runner drives one batch: scan, resolve, organize and retag each
// file in turn, then summarize.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/oklog/ulid/v2"
	"github.com/schollz/progressbar/v3"

	"github.com/jdfalk/music-organizer/internal/cache"
	"github.com/jdfalk/music-organizer/internal/fileops"
	"github.com/jdfalk/music-organizer/internal/metrics"
	"github.com/jdfalk/music-organizer/internal/models"
	"github.com/jdfalk/music-organizer/internal/organizer"
	"github.com/jdfalk/music-organizer/internal/scanner"
	"github.com/jdfalk/music-organizer/internal/tagger"
)

// LockFileName is created in the destination root for the length of a
// non-dry run
const LockFileName = ".music-organizer.lock"

// ErrLocked means another run holds the destination lock
var ErrLocked = errors.New("another run is using the destination")

// Resolver identifies a track
type Resolver interface {
	Resolve(ctx context.Context, track *models.TrackRecord) models.ResolutionResult
}

// Organizer moves resolved tracks and quarantines the rest
type Organizer interface {
	Organize(track *models.TrackRecord, c *models.MetadataCandidate) (organizer.Result, error)
	Quarantine(path string) (string, error)
	QuarantineDir() string
}

// TagWriter rewrites embedded tags
type TagWriter interface {
	Write(path string, c *models.MetadataCandidate, dryRun bool) ([]tagger.Field, error)
}

// Options describes a batch
type Options struct {
	Source      string
	Dest        string
	DryRun      bool
	Limit       int
	Recursive   bool
	Extensions  []string
	ReportPath  string
	MetricsPath string
	// CacheStats, when set, is read once at the end of the batch
	CacheStats func() cache.Stats
}

// Runner processes files sequentially
type Runner struct {
	opts      Options
	resolver  Resolver
	organizer Organizer
	tags      TagWriter
	out       io.Writer
	progress  bool
	now       func() time.Time
}

// New creates a runner. Summary and progress output go to out; the
// progress bar is shown only when out is a terminal.
func New(opts Options, r Resolver, o Organizer, t TagWriter, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		opts:      opts,
		resolver:  r,
		organizer: o,
		tags:      t,
		out:       out,
		progress:  isTerminal(out),
		now:       time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Run processes every file found under the source root. Per-file failures
// are counted, never returned; the error is reserved for problems that stop
// the batch before it starts, such as a held lock or an unreadable root.
// Cancelling ctx stops the batch between files.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	metrics.Register()
	started := r.now()

	report := &Report{
		RunID:     ulid.Make().String(),
		StartedAt: started,
		DryRun:    r.opts.DryRun,
		Source:    r.opts.Source,
		Dest:      r.opts.Dest,
	}

	if !r.opts.DryRun {
		unlock, err := r.lock()
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	files, err := scanner.FindAudioFiles(r.opts.Source, scanner.Options{
		Extensions: r.opts.Extensions,
		Recursive:  r.opts.Recursive,
		SkipDirs:   []string{r.organizer.QuarantineDir()},
	})
	if err != nil {
		return nil, err
	}
	report.Summary.Found = len(files)
	metrics.SetFilesFound(len(files))

	files = scanner.Limit(files, r.opts.Limit)
	if len(files) < report.Summary.Found {
		fmt.Fprintf(r.out, "Processing the first %d of %d files\n", len(files), report.Summary.Found)
	}
	if r.opts.DryRun {
		fmt.Fprintln(r.out, "Dry run: no files will be moved or retagged")
	}

	var bar *progressbar.ProgressBar
	if r.progress && len(files) > 0 {
		bar = progressbar.Default(int64(len(files)))
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			log.Printf("[WARN] runner: stopping after %d files: %v", report.Summary.Processed, err)
			report.Interrupted = true
			break
		}

		fr := r.processFile(ctx, path)
		report.add(fr)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if r.opts.CacheStats != nil {
		st := r.opts.CacheStats()
		report.Summary.CacheHits = st.Hits
		report.Summary.CacheMisses = st.Misses
		metrics.SetCacheStats(st.Hits, st.Misses)
	}

	report.FinishedAt = r.now()
	report.Elapsed = report.FinishedAt.Sub(started)
	metrics.SetLastRun(report.FinishedAt)

	if r.opts.ReportPath != "" {
		if err := WriteReport(r.opts.ReportPath, report); err != nil {
			log.Printf("[ERROR] runner: %v", err)
		}
	}
	if r.opts.MetricsPath != "" {
		if err := metrics.WriteTextfile(r.opts.MetricsPath); err != nil {
			log.Printf("[ERROR] runner: %v", err)
		}
	}
	return report, nil
}

// lock takes the destination lock so two runs never mutate the same tree
func (r *Runner) lock() (func(), error) {
	if err := fileops.EnsureDir(r.opts.Dest); err != nil {
		return nil, err
	}
	path := filepath.Join(r.opts.Dest, LockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is held", ErrLocked, path)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("[WARN] runner: release lock: %v", err)
		}
		_ = os.Remove(path)
	}, nil
}

// processFile runs one file through the pipeline. Nothing here returns an
// error; every failure is folded into the file report.
func (r *Runner) processFile(ctx context.Context, path string) (fr FileReport) {
	start := r.now()
	fr = FileReport{Path: path}
	defer func() {
		fr.Duration = r.now().Sub(start)
		metrics.ObserveFileDuration(fr.Duration)
		metrics.IncFile(string(fr.Outcome))
	}()

	log.Printf("[INFO] runner: processing %s", path)
	if size, err := fileops.GetFileSize(path); err == nil {
		fr.Bytes = size
	}

	track, err := models.NewTrackRecord(path)
	if err != nil {
		fr.Outcome = OutcomeFailed
		fr.Error = err.Error()
		return fr
	}

	res := r.resolver.Resolve(ctx, track)
	fr.Attempts = res.Attempts
	for _, a := range res.Attempts {
		metrics.IncAttempt(string(a.Stage), string(a.Outcome))
	}

	if !res.Resolved() {
		log.Printf("[INFO] runner: could not identify %s", track.FileName())
		r.quarantine(&fr, track.Path)
		return fr
	}

	c := res.Candidate
	fr.Source = c.Source
	fr.Candidate = c
	metrics.IncResolution(string(c.Source))

	result, err := r.organizer.Organize(track, c)
	if err != nil {
		fr.OrganizeError = err.Error()
		fr.Quarantined = result.Quarantined
		if result.Quarantined != "" {
			fr.Outcome = OutcomeQuarantined
		} else {
			fr.Outcome = OutcomeFailed
		}
		return fr
	}

	fr.Target = result.Path
	switch result.Plan.Outcome {
	case models.PlanAlreadyOrganized:
		fr.Outcome = OutcomeAlreadyOrganized
	case models.PlanDryRun:
		fr.Outcome = OutcomeWouldOrganize
	default:
		fr.Outcome = OutcomeOrganized
	}

	// in a dry run the file has not moved, so the fields are computed
	// against the original
	tagPath := result.Path
	if r.opts.DryRun {
		tagPath = track.Path
	}
	fields, err := r.tags.Write(tagPath, c, r.opts.DryRun)
	if err != nil {
		log.Printf("[ERROR] runner: tag write failed for %s: %v", tagPath, err)
		fr.TagError = err.Error()
		return fr
	}
	for _, f := range fields {
		fr.Tags = append(fr.Tags, f.String())
	}
	return fr
}

func (r *Runner) quarantine(fr *FileReport, path string) {
	q, err := r.organizer.Quarantine(path)
	if err != nil {
		fr.Outcome = OutcomeFailed
		fr.Error = err.Error()
		return
	}
	fr.Outcome = OutcomeQuarantined
	fr.Quarantined = q
}
