// file: internal/resolver/resolver_test.go
// version: 1.0.0
// guid: a93d1f6e-4c28-4b70-8e15-d7b2c0f9a368

package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jdfalk/music-organizer/internal/ai"
	"github.com/jdfalk/music-organizer/internal/fingerprint"
	"github.com/jdfalk/music-organizer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTags struct{ mock.Mock }

func (m *mockTags) Read(path string) models.TagInfo {
	return m.Called(path).Get(0).(models.TagInfo)
}

type mockFingerprint struct{ mock.Mock }

func (m *mockFingerprint) Available(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockFingerprint) Identify(ctx context.Context, path string) (*models.MetadataCandidate, error) {
	args := m.Called(ctx, path)
	c, _ := args.Get(0).(*models.MetadataCandidate)
	return c, args.Error(1)
}

type mockGuesser struct{ mock.Mock }

func (m *mockGuesser) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *mockGuesser) Guess(ctx context.Context, fragment string) (*ai.Guess, error) {
	args := m.Called(ctx, fragment)
	g, _ := args.Get(0).(*ai.Guess)
	return g, args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, artist, title, album string) (*models.MetadataCandidate, error) {
	args := m.Called(ctx, artist, title, album)
	c, _ := args.Get(0).(*models.MetadataCandidate)
	return c, args.Error(1)
}

type fixture struct {
	tags     *mockTags
	fp       *mockFingerprint
	guesser  *mockGuesser
	verifier *mockVerifier
	pipeline *Pipeline
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		tags:     &mockTags{},
		fp:       &mockFingerprint{},
		guesser:  &mockGuesser{},
		verifier: &mockVerifier{},
	}
	f.pipeline = New(f.tags, f.fp, f.guesser, f.verifier, opts...)
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.tags.AssertExpectations(t)
	f.fp.AssertExpectations(t)
	f.guesser.AssertExpectations(t)
	f.verifier.AssertExpectations(t)
}

func track(t *testing.T, path string) *models.TrackRecord {
	t.Helper()
	tr, err := models.NewTrackRecord(path)
	require.NoError(t, err)
	return tr
}

func outcomes(res models.ResolutionResult) []models.AttemptOutcome {
	out := make([]models.AttemptOutcome, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		out = append(out, a.Outcome)
	}
	return out
}

func TestResolve_LocalTagsWin(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/song.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{
		Artist: "Johnny Cash", Title: "Hurt", Album: "American IV", TrackNumber: "9", Year: "2002",
	}).Once()

	res := f.pipeline.Resolve(context.Background(), tr)

	require.True(t, res.Resolved())
	assert.Equal(t, models.SourceLocalTags, res.Candidate.Source)
	assert.Equal(t, "09", res.Candidate.TrackNumber)
	assert.Equal(t, "2002", res.Candidate.Year)
	assert.Equal(t, []models.AttemptOutcome{models.OutcomeAccepted}, outcomes(res))

	f.fp.AssertNotCalled(t, "Available", mock.Anything)
	f.fp.AssertNotCalled(t, "Identify", mock.Anything, mock.Anything)
	f.guesser.AssertNotCalled(t, "Enabled")
	f.guesser.AssertNotCalled(t, "Guess", mock.Anything, mock.Anything)
	f.verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestResolve_FingerprintWins(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/track07.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{Title: "Free Fallin"})
	f.fp.On("Available", mock.Anything).Return(nil).Once()
	f.fp.On("Identify", mock.Anything, tr.Path).Return(&models.MetadataCandidate{
		Artist: "Tom Petty", Title: "Free Fallin'", Album: "Full Moon Fever", TrackNumber: "1",
		ConfidenceNote: "acoustid score 0.93",
	}, nil).Once()

	res := f.pipeline.Resolve(context.Background(), tr)

	require.True(t, res.Resolved())
	assert.Equal(t, models.SourceFingerprintCatalog, res.Candidate.Source)
	assert.Equal(t, "01", res.Candidate.TrackNumber)
	assert.Equal(t, []models.AttemptOutcome{models.OutcomeNoMatch, models.OutcomeAccepted}, outcomes(res))
	f.guesser.AssertNotCalled(t, "Enabled")
	f.assertExpectations(t)
}

func TestResolve_LanguageModelPath(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/03_tom_petty_-_free_fallin.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{})
	f.fp.On("Available", mock.Anything).Return(fingerprint.ErrNoCredential).Once()
	f.guesser.On("Enabled").Return(true)
	f.guesser.On("Guess", mock.Anything, "tom petty - free fallin").
		Return(&ai.Guess{Artist: "Tom Petty", Title: "Free Fallin'"}, nil).Once()
	f.verifier.On("Verify", mock.Anything, "Tom Petty", "Free Fallin'", "").
		Return(&models.MetadataCandidate{Artist: "Tom Petty", Title: "Free Fallin'", Album: "Full Moon Fever"}, nil).Once()

	res := f.pipeline.Resolve(context.Background(), tr)

	require.True(t, res.Resolved())
	c := res.Candidate
	assert.Equal(t, models.SourceLanguageModelCatalog, c.Source)
	assert.Equal(t, "Tom Petty", c.Artist)
	assert.Equal(t, "Free Fallin'", c.Title)
	assert.Equal(t, "Full Moon Fever", c.Album)
	assert.Equal(t, "03", c.TrackNumber)
	assert.Equal(t, []models.AttemptOutcome{
		models.OutcomeNoMatch, models.OutcomeSkipped, models.OutcomeAccepted,
	}, outcomes(res))
	f.fp.AssertNotCalled(t, "Identify", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestResolve_GuessTrackBackfillNeverOverrides(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/free fallin.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{})
	f.fp.On("Available", mock.Anything).Return(fingerprint.ErrUnavailable)
	f.guesser.On("Enabled").Return(true)
	f.guesser.On("Guess", mock.Anything, "free fallin").
		Return(&ai.Guess{Artist: "Tom Petty", Title: "Free Fallin'", LeadingTrackNumber: "5"}, nil).Twice()

	verifier := f.verifier.On("Verify", mock.Anything, "Tom Petty", "Free Fallin'", "").
		Return(&models.MetadataCandidate{Artist: "Tom Petty", Title: "Free Fallin'", Album: "Full Moon Fever"}, nil).Once()
	res := f.pipeline.Resolve(context.Background(), tr)
	require.True(t, res.Resolved())
	assert.Equal(t, "05", res.Candidate.TrackNumber, "guess prefix backfills a missing catalog track")
	verifier.Unset()

	f.verifier.On("Verify", mock.Anything, "Tom Petty", "Free Fallin'", "").
		Return(&models.MetadataCandidate{Artist: "Tom Petty", Title: "Free Fallin'", Album: "Full Moon Fever", TrackNumber: "1"}, nil).Once()
	res = f.pipeline.Resolve(context.Background(), track(t, "/music/free fallin.mp3"))
	require.True(t, res.Resolved())
	assert.Equal(t, "01", res.Candidate.TrackNumber, "catalog track number wins")
}

func TestResolve_FailuresAdvance(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/07 - mystery.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{})
	f.fp.On("Available", mock.Anything).Return(nil)
	f.fp.On("Identify", mock.Anything, tr.Path).Return(nil, errors.New("fpcalc: exit status 3"))
	f.guesser.On("Enabled").Return(true)
	f.guesser.On("Guess", mock.Anything, "mystery").
		Return(&ai.Guess{Artist: "Someone", Title: "Mystery", Album: "Secrets"}, nil)
	f.verifier.On("Verify", mock.Anything, "Someone", "Mystery", "Secrets").
		Return(&models.MetadataCandidate{Artist: "Someone", Title: "Mystery", Album: "Secrets", TrackNumber: "bad"}, nil)

	res := f.pipeline.Resolve(context.Background(), tr)

	require.True(t, res.Resolved())
	assert.Equal(t, "07", res.Candidate.TrackNumber, "malformed track dropped then backfilled from filename")
	assert.Equal(t, models.OutcomeFailed, res.Attempts[1].Outcome)
	assert.Contains(t, res.Attempts[1].Detail, "exit status 3")
}

func TestResolve_UnresolvedCarriesPartial(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/unknown.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{Artist: "Someone"})
	f.fp.On("Available", mock.Anything).Return(nil)
	f.fp.On("Identify", mock.Anything, tr.Path).Return(nil, nil)
	f.guesser.On("Enabled").Return(true)
	f.guesser.On("Guess", mock.Anything, "unknown").Return(&ai.Guess{Artist: "Someone", Title: "Song"}, nil)
	f.verifier.On("Verify", mock.Anything, "Someone", "Song", "").Return(nil, nil)

	res := f.pipeline.Resolve(context.Background(), tr)

	assert.Equal(t, models.StatusUnresolved, res.Status)
	assert.False(t, res.Resolved())
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "Song", res.Candidate.Title)
	assert.Equal(t, "unverified language model guess", res.Candidate.ConfidenceNote)
	assert.Equal(t, []models.AttemptOutcome{
		models.OutcomeNoMatch, models.OutcomeNoMatch, models.OutcomeNoMatch,
	}, outcomes(res))
}

func TestResolve_InsufficientFingerprintContinues(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/x.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{})
	f.fp.On("Available", mock.Anything).Return(nil)
	f.fp.On("Identify", mock.Anything, tr.Path).Return(&models.MetadataCandidate{Artist: "A", Title: "T"}, nil)
	f.guesser.On("Enabled").Return(false)

	res := f.pipeline.Resolve(context.Background(), tr)

	assert.Equal(t, models.StatusUnresolved, res.Status)
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "A", res.Candidate.Artist)
	assert.Contains(t, res.Attempts[1].Detail, "album")
	assert.Equal(t, models.OutcomeSkipped, res.Attempts[2].Outcome)
	f.guesser.AssertNotCalled(t, "Guess", mock.Anything, mock.Anything)
}

func TestResolve_NothingAtAll(t *testing.T) {
	tags := &mockTags{}
	tr := track(t, "/music/x.mp3")
	tags.On("Read", tr.Path).Return(models.TagInfo{})

	res := New(tags, nil, nil, nil).Resolve(context.Background(), tr)

	assert.Equal(t, models.StatusUnresolved, res.Status)
	assert.Nil(t, res.Candidate)
	assert.Equal(t, []models.AttemptOutcome{
		models.OutcomeNoMatch, models.OutcomeSkipped, models.OutcomeSkipped,
	}, outcomes(res))
}

func TestResolve_VerifierErrorKeepsGuess(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/a.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{})
	f.fp.On("Available", mock.Anything).Return(fingerprint.ErrNoCredential)
	f.guesser.On("Enabled").Return(true)
	f.guesser.On("Guess", mock.Anything, "a").Return(&ai.Guess{Artist: "X", Title: "Y"}, nil)
	f.verifier.On("Verify", mock.Anything, "X", "Y", "").Return(nil, errors.New("musicbrainz status 503"))

	res := f.pipeline.Resolve(context.Background(), tr)

	assert.Equal(t, models.StatusUnresolved, res.Status)
	assert.Equal(t, "Y", res.Candidate.Title)
	assert.Equal(t, models.OutcomeFailed, res.Attempts[2].Outcome)
}

func TestResolve_SourceTimeout(t *testing.T) {
	f := newFixture(WithSourceTimeout(20 * time.Millisecond))
	tr := track(t, "/music/slow.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{})
	f.fp.On("Available", mock.Anything).Return(nil)
	f.fp.On("Identify", mock.Anything, tr.Path).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		<-ctx.Done()
	}).Return(nil, nil)
	f.guesser.On("Enabled").Return(false)

	res := f.pipeline.Resolve(context.Background(), tr)

	assert.Equal(t, models.StatusUnresolved, res.Status)
	assert.Equal(t, models.OutcomeFailed, res.Attempts[1].Outcome)
	assert.Contains(t, res.Attempts[1].Detail, "timed out")
}

func TestResolve_AlbumBackfillFromLocalTags(t *testing.T) {
	tr := track(t, "/music/b.mp3")
	tr.LocalTags = models.TagInfo{Album: "  Local Album "}
	c := &models.MetadataCandidate{Artist: "A", Title: "T"}

	repair(c, tr)

	assert.Equal(t, "Local Album", c.Album)
	assert.Empty(t, c.TrackNumber)
}

func TestRepair_TrackNormalization(t *testing.T) {
	tr := track(t, "/music/no prefix.mp3")

	c := &models.MetadataCandidate{TrackNumber: "3"}
	repair(c, tr)
	assert.Equal(t, "03", c.TrackNumber)

	c = &models.MetadataCandidate{TrackNumber: "bad"}
	repair(c, tr)
	assert.Empty(t, c.TrackNumber)
}

func TestResolve_EmptyCleanedFilename(t *testing.T) {
	f := newFixture()
	tr := track(t, "/music/01.mp3")
	f.tags.On("Read", tr.Path).Return(models.TagInfo{})
	f.fp.On("Available", mock.Anything).Return(fingerprint.ErrNoCredential)
	f.guesser.On("Enabled").Return(true)

	res := f.pipeline.Resolve(context.Background(), tr)

	assert.Equal(t, models.StatusUnresolved, res.Status)
	f.guesser.AssertNotCalled(t, "Guess", mock.Anything, mock.Anything)
}
