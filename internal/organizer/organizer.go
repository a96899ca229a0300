// file: internal/organizer/organizer.go
// version: 2.0.0
// guid: 5e6f7a8b-9c0d-1e2f-3a4b-5c6d7e8f9a0b

// Package organizer moves identified tracks into the Artist/Album layout and
// routes everything else into the reviewed quarantine folder.
package organizer

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/jdfalk/music-organizer/internal/fileops"
	"github.com/jdfalk/music-organizer/internal/models"
	"github.com/jdfalk/music-organizer/internal/naming"
)

// QuarantineDirName is the folder under the destination root that receives
// files which could not be identified or organized.
const QuarantineDirName = "reviewed"

var (
	// ErrInsufficient means the candidate lacks artist, title or album
	ErrInsufficient = errors.New("candidate is missing artist, title or album")
	// ErrCollision means a different file already occupies the target path
	ErrCollision = errors.New("target path is occupied")
	// ErrQuarantine means the file could not be moved into quarantine either
	ErrQuarantine = errors.New("quarantine failed")
)

// Result reports what Organize did with one file
type Result struct {
	Plan models.OrganizePlan
	// Path is where the file now lives, or would live in a dry run. It is
	// empty when the file was routed to quarantine.
	Path string
	// Quarantined is the quarantine path when the file was routed there
	Quarantined string
}

// Organizer handles file organization operations
type Organizer struct {
	root                string
	dryRun              bool
	preserveApostrophes bool
}

// NewOrganizer creates an organizer rooted at the destination directory
func NewOrganizer(root string, dryRun, preserveApostrophes bool) *Organizer {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Organizer{root: root, dryRun: dryRun, preserveApostrophes: preserveApostrophes}
}

// Root returns the destination root
func (o *Organizer) Root() string {
	return o.root
}

// QuarantineDir returns the reviewed folder path
func (o *Organizer) QuarantineDir() string {
	return filepath.Join(o.root, QuarantineDirName)
}

// Plan computes the target directory and filename for a resolved candidate
// without touching the filesystem.
func (o *Organizer) Plan(track *models.TrackRecord, c *models.MetadataCandidate) (models.OrganizePlan, error) {
	if !c.Sufficient() {
		return models.OrganizePlan{}, ErrInsufficient
	}

	artistDir := naming.SanitizeComponent(naming.FormatArtistForDirectory(c.Artist), false)
	albumDir := naming.SanitizeComponent(c.Album, false)

	plan := models.OrganizePlan{
		TargetDir:  filepath.Join(o.root, artistDir, albumDir),
		TargetName: o.fileName(track, c),
		Outcome:    models.PlanMove,
	}
	if samePath(plan.TargetPath(), track.Path) {
		plan.Outcome = models.PlanAlreadyOrganized
	} else if o.dryRun {
		plan.Outcome = models.PlanDryRun
	}
	return plan, nil
}

// fileName renders "<track> - <title><ext>", or "<title><ext>" without a
// track number.
func (o *Organizer) fileName(track *models.TrackRecord, c *models.MetadataCandidate) string {
	number := strings.TrimSpace(c.TrackNumber)
	title := naming.SanitizeComponent(c.Title, o.preserveApostrophes)

	if title == naming.UnknownComponent && number == "" {
		return naming.SanitizeComponent(track.BaseName, o.preserveApostrophes) + track.Ext
	}
	if number == "" {
		return title + track.Ext
	}
	return number + " - " + title + track.Ext
}

// Organize moves the track to its planned location. Insufficient candidates,
// occupied targets and move failures route the original file to quarantine;
// the returned error says why. In a dry run nothing is created or moved.
func (o *Organizer) Organize(track *models.TrackRecord, c *models.MetadataCandidate) (Result, error) {
	plan, err := o.Plan(track, c)
	if err != nil {
		log.Printf("[WARN] organizer: %s: %v, routing to quarantine", track.FileName(), err)
		return o.quarantineResult(track, plan, err)
	}
	target := plan.TargetPath()

	switch plan.Outcome {
	case models.PlanAlreadyOrganized:
		log.Printf("[INFO] organizer: %s is already organized", target)
		return Result{Plan: plan, Path: target}, nil
	case models.PlanDryRun:
		if fileops.Exists(target) {
			plan.Outcome = models.PlanCollision
			log.Printf("[WARN] organizer: dry run, %s is occupied", target)
			return o.quarantineResult(track, plan, fmt.Errorf("%w: %s", ErrCollision, target))
		}
		log.Printf("[INFO] organizer: dry run, would move %s -> %s", track.Path, target)
		return Result{Plan: plan, Path: target}, nil
	}

	if err := fileops.EnsureDir(plan.TargetDir); err != nil {
		log.Printf("[ERROR] organizer: %v", err)
		return o.quarantineResult(track, plan, err)
	}
	if fileops.Exists(target) {
		plan.Outcome = models.PlanCollision
		log.Printf("[WARN] organizer: %s is occupied, not overwriting", target)
		return o.quarantineResult(track, plan, fmt.Errorf("%w: %s", ErrCollision, target))
	}

	if err := fileops.Move(track.Path, target); err != nil {
		if errors.Is(err, fileops.ErrTargetExists) {
			plan.Outcome = models.PlanCollision
			err = fmt.Errorf("%w: %s", ErrCollision, target)
		}
		log.Printf("[ERROR] organizer: move %s -> %s failed: %v", track.Path, target, err)
		return o.quarantineResult(track, plan, err)
	}

	log.Printf("[INFO] organizer: moved %s -> %s", track.Path, target)
	track.Path = target
	return Result{Plan: plan, Path: target}, nil
}

func (o *Organizer) quarantineResult(track *models.TrackRecord, plan models.OrganizePlan, cause error) (Result, error) {
	q, qerr := o.Quarantine(track.Path)
	if qerr != nil {
		return Result{Plan: plan}, errors.Join(cause, qerr)
	}
	return Result{Plan: plan, Quarantined: q}, cause
}

// Quarantine moves the unmodified file into the reviewed folder, appending
// _1, _2 and so on before the extension when the name is taken. It is
// best effort: a failure is logged and the file stays where it is. The dry
// run variant only computes the destination.
func (o *Organizer) Quarantine(path string) (string, error) {
	dir := o.QuarantineDir()

	if !o.dryRun {
		if err := fileops.EnsureDir(dir); err != nil {
			log.Printf("[CRITICAL] organizer: cannot create %s, leaving %s in place: %v", dir, path, err)
			return "", fmt.Errorf("%w: %v", ErrQuarantine, err)
		}
	}

	target := FreeName(dir, filepath.Base(path))
	if o.dryRun {
		log.Printf("[INFO] organizer: dry run, would quarantine %s -> %s", path, target)
		return target, nil
	}

	if err := fileops.Move(path, target); err != nil {
		log.Printf("[CRITICAL] organizer: cannot quarantine %s, leaving it in place: %v", path, err)
		return "", fmt.Errorf("%w: %v", ErrQuarantine, err)
	}
	log.Printf("[INFO] organizer: quarantined %s -> %s", path, target)
	return target, nil
}

// FreeName returns dir/name, or dir/<stem>_<N><ext> for the smallest N >= 1
// that is not taken.
func FreeName(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if !fileops.Exists(candidate) {
		return candidate
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !fileops.Exists(candidate) {
			return candidate
		}
	}
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
