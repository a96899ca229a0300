// file: internal/models/track.go
// version: 2.0.0
// guid: 6e7f8a9b-0c1d-2e3f-4a5b-6c7d8e9f0a1b

package models

import (
	"path/filepath"
	"strings"
)

// Source identifies which information source produced a candidate
type Source string

const (
	SourceNone                 Source = ""
	SourceLocalTags            Source = "local_tags"
	SourceFingerprintCatalog   Source = "fingerprint_catalog"
	SourceLanguageModelCatalog Source = "language_model_catalog"
)

// TagInfo is a snapshot of the tags already embedded in a file.
// Empty strings mean the field was absent.
type TagInfo struct {
	Artist      string `yaml:"artist,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Album       string `yaml:"album,omitempty"`
	TrackNumber string `yaml:"track_number,omitempty"`
	Year        string `yaml:"year,omitempty"`
}

// IsEmpty reports whether no field is populated
func (t TagInfo) IsEmpty() bool {
	return t == TagInfo{}
}

// TrackRecord is the unit of work for one audio file
type TrackRecord struct {
	Path      string  // absolute source path
	Ext       string  // original extension including the dot
	BaseName  string  // filename without extension
	LocalTags TagInfo // tags read during the local tag check
}

// NewTrackRecord builds a record for the given file path
func NewTrackRecord(path string) (*TrackRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(abs)
	ext := filepath.Ext(name)
	return &TrackRecord{
		Path:     abs,
		Ext:      ext,
		BaseName: strings.TrimSuffix(name, ext),
	}, nil
}

// FileName returns the current base filename with extension
func (t *TrackRecord) FileName() string {
	return filepath.Base(t.Path)
}

// MetadataCandidate represents identified metadata from a single source.
// TrackNumber is a two-digit zero-padded string and Year is four digits when set.
type MetadataCandidate struct {
	Artist         string `yaml:"artist,omitempty"`
	Title          string `yaml:"title,omitempty"`
	Album          string `yaml:"album,omitempty"`
	TrackNumber    string `yaml:"track_number,omitempty"`
	Year           string `yaml:"year,omitempty"`
	Source         Source `yaml:"source,omitempty"`
	ConfidenceNote string `yaml:"confidence_note,omitempty"`
}

// Sufficient reports whether artist, title and album are all present
func (c *MetadataCandidate) Sufficient() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.Artist) != "" &&
		strings.TrimSpace(c.Title) != "" &&
		strings.TrimSpace(c.Album) != ""
}

// Clone returns a copy that can be mutated independently
func (c *MetadataCandidate) Clone() *MetadataCandidate {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// CandidateFromTags wraps a tag snapshot as a candidate
func CandidateFromTags(t TagInfo) *MetadataCandidate {
	return &MetadataCandidate{
		Artist:      strings.TrimSpace(t.Artist),
		Title:       strings.TrimSpace(t.Title),
		Album:       strings.TrimSpace(t.Album),
		TrackNumber: strings.TrimSpace(t.TrackNumber),
		Year:        strings.TrimSpace(t.Year),
		Source:      SourceLocalTags,
	}
}

// ResolutionStatus is the terminal state of the resolution pipeline
type ResolutionStatus string

const (
	StatusResolved   ResolutionStatus = "resolved"
	StatusUnresolved ResolutionStatus = "unresolved"
)

// Stage names a step of the resolution pipeline
type Stage string

const (
	StageLocalTags     Stage = "local_tags"
	StageFingerprint   Stage = "fingerprint"
	StageLanguageModel Stage = "language_model"
)

// AttemptOutcome describes what a stage produced
type AttemptOutcome string

const (
	OutcomeSkipped  AttemptOutcome = "skipped"
	OutcomeNoMatch  AttemptOutcome = "no_match"
	OutcomeFailed   AttemptOutcome = "failed"
	OutcomeAccepted AttemptOutcome = "accepted"
)

// Attempt records one stage of the pipeline for auditing
type Attempt struct {
	Stage   Stage          `yaml:"stage"`
	Outcome AttemptOutcome `yaml:"outcome"`
	Detail  string         `yaml:"detail,omitempty"`
}

// ResolutionResult is the outcome of identifying one track.
// Candidate is sufficient when Status is resolved; otherwise it may hold
// a partial candidate from the last attempted stage, or be nil.
type ResolutionResult struct {
	Status    ResolutionStatus
	Candidate *MetadataCandidate
	Attempts  []Attempt
}

// Resolved reports whether the result carries a sufficient candidate
func (r ResolutionResult) Resolved() bool {
	return r.Status == StatusResolved && r.Candidate.Sufficient()
}

// PlanOutcome describes what the organizer decided for a file
type PlanOutcome string

const (
	PlanMove             PlanOutcome = "move"
	PlanAlreadyOrganized PlanOutcome = "already_organized"
	PlanCollision        PlanOutcome = "collision"
	PlanDryRun           PlanOutcome = "dry_run"
)

// OrganizePlan is computed immediately before any filesystem mutation
// and discarded after use.
type OrganizePlan struct {
	TargetDir  string
	TargetName string
	Outcome    PlanOutcome
}

// TargetPath joins the target directory and filename
func (p OrganizePlan) TargetPath() string {
	return filepath.Join(p.TargetDir, p.TargetName)
}
