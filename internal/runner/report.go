// file: internal/runner/report.go
// version: 1.1.0
// guid: 8d3a6b1f-0e52-49c7-b7a4-5f2c8e1d9b36

package runner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/jdfalk/music-organizer/internal/models"
)

// Outcome is the final state of one file
type Outcome string

const (
	OutcomeOrganized        Outcome = "organized"
	OutcomeAlreadyOrganized Outcome = "already_organized"
	OutcomeWouldOrganize    Outcome = "would_organize"
	OutcomeQuarantined      Outcome = "quarantined"
	OutcomeFailed           Outcome = "failed"
)

// FileReport records what happened to one file
type FileReport struct {
	Path          string                    `yaml:"path"`
	Outcome       Outcome                   `yaml:"outcome"`
	Source        models.Source             `yaml:"source,omitempty"`
	Candidate     *models.MetadataCandidate `yaml:"candidate,omitempty"`
	Target        string                    `yaml:"target,omitempty"`
	Quarantined   string                    `yaml:"quarantined,omitempty"`
	Tags          []string                  `yaml:"tags,omitempty"`
	Attempts      []models.Attempt          `yaml:"attempts,omitempty"`
	Error         string                    `yaml:"error,omitempty"`
	OrganizeError string                    `yaml:"organize_error,omitempty"`
	TagError      string                    `yaml:"tag_error,omitempty"`
	Bytes         int64                     `yaml:"bytes"`
	Duration      time.Duration             `yaml:"duration"`
}

// Summary holds the run counters
type Summary struct {
	Found            int   `yaml:"found"`
	Processed        int   `yaml:"processed"`
	ByLocalTags      int   `yaml:"resolved_local_tags"`
	ByFingerprint    int   `yaml:"resolved_fingerprint"`
	ByLanguageModel  int   `yaml:"resolved_language_model"`
	Unresolved       int   `yaml:"unresolved"`
	Organized        int   `yaml:"organized"`
	AlreadyOrganized int   `yaml:"already_organized"`
	Quarantined      int   `yaml:"quarantined"`
	OrganizeFailures int   `yaml:"organize_failures"`
	TagWriteFailures int   `yaml:"tag_write_failures"`
	Failed           int   `yaml:"failed"`
	Bytes            int64 `yaml:"bytes"`
	CacheHits        int64 `yaml:"catalog_cache_hits"`
	CacheMisses      int64 `yaml:"catalog_cache_misses"`
}

// Resolved is the number of files any source identified
func (s Summary) Resolved() int {
	return s.ByLocalTags + s.ByFingerprint + s.ByLanguageModel
}

// Report is the outcome of a whole run
type Report struct {
	RunID       string        `yaml:"run_id"`
	StartedAt   time.Time     `yaml:"started_at"`
	FinishedAt  time.Time     `yaml:"finished_at"`
	Elapsed     time.Duration `yaml:"elapsed"`
	DryRun      bool          `yaml:"dry_run"`
	Interrupted bool          `yaml:"interrupted,omitempty"`
	Source      string        `yaml:"source"`
	Dest        string        `yaml:"dest"`
	Summary     Summary       `yaml:"summary"`
	Files       []FileReport  `yaml:"files"`
}

func (r *Report) add(fr FileReport) {
	r.Files = append(r.Files, fr)
	s := &r.Summary
	s.Processed++
	s.Bytes += fr.Bytes

	switch fr.Source {
	case models.SourceLocalTags:
		s.ByLocalTags++
	case models.SourceFingerprintCatalog:
		s.ByFingerprint++
	case models.SourceLanguageModelCatalog:
		s.ByLanguageModel++
	default:
		s.Unresolved++
	}

	switch fr.Outcome {
	case OutcomeOrganized, OutcomeWouldOrganize:
		s.Organized++
	case OutcomeAlreadyOrganized:
		s.AlreadyOrganized++
	case OutcomeQuarantined:
		s.Quarantined++
	case OutcomeFailed:
		s.Failed++
	}
	if fr.OrganizeError != "" {
		s.OrganizeFailures++
	}
	if fr.TagError != "" {
		s.TagWriteFailures++
	}
}

// WriteReport saves the report as YAML
func WriteReport(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// RenderSummary writes the run counters as a table
func RenderSummary(w io.Writer, r *Report) {
	s := r.Summary

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	title := "Run " + r.RunID
	if r.DryRun {
		title += " (dry run)"
	}
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Metric", "Count"})

	organizedLabel := "Organized"
	if r.DryRun {
		organizedLabel = "Would organize"
	}
	rows := []struct {
		label string
		value int
	}{
		{"Found", s.Found},
		{"Processed", s.Processed},
		{"Resolved from local tags", s.ByLocalTags},
		{"Resolved by fingerprint", s.ByFingerprint},
		{"Resolved by language model", s.ByLanguageModel},
		{"Unresolved", s.Unresolved},
		{organizedLabel, s.Organized},
		{"Already organized", s.AlreadyOrganized},
		{"Quarantined", s.Quarantined},
		{"Organize failures", s.OrganizeFailures},
		{"Tag write failures", s.TagWriteFailures},
		{"Failed", s.Failed},
	}
	for _, row := range rows {
		tw.AppendRow(table.Row{row.label, strconv.Itoa(row.value)})
	}
	tw.AppendSeparator()
	if lookups := s.CacheHits + s.CacheMisses; lookups > 0 {
		tw.AppendRow(table.Row{"Catalog cache hits", fmt.Sprintf("%d/%d", s.CacheHits, lookups)})
	}
	tw.AppendRow(table.Row{"Data", humanize.Bytes(uint64(max(s.Bytes, 0)))})
	tw.AppendRow(table.Row{"Elapsed", r.Elapsed.Round(time.Millisecond).String()})
	if r.Interrupted {
		tw.AppendRow(table.Row{"Interrupted", "yes"})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.Render()
}
