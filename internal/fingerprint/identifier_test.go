// file: internal/fingerprint/identifier_test.go
// version: 1.0.0
// guid: 6c2f9e04-8a1b-4d73-b5c6-0e4a7d3f1b92

package fingerprint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jdfalk/music-organizer/internal/musicbrainz"
	"github.com/jdfalk/music-organizer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetRecording(ctx context.Context, mbid string) (*musicbrainz.Recording, error) {
	args := m.Called(ctx, mbid)
	rec, _ := args.Get(0).(*musicbrainz.Recording)
	return rec, args.Error(1)
}

func fullMoonFever() *musicbrainz.Recording {
	return &musicbrainz.Recording{
		ID:     "rec-free-fallin",
		Title:  "Free Fallin'",
		Artist: "Tom Petty",
		Releases: []musicbrainz.Release{
			{ID: "rel-fmf", Title: "Full Moon Fever", Date: "1989-04-24", TrackNumber: "1"},
		},
	}
}

func newTestIdentifier(t *testing.T, key string, catalog RecordingResolver, threshold float64) (*Identifier, *testutil.MockServer) {
	t.Helper()
	srv := testutil.MockJSONServer(t, map[string]string{"/lookup": testutil.AcoustIDLookupResponse})
	fp := NewFpcalc("fpcalc", time.Second, WithExecutor(&stubExecutor{out: []byte(jsonOutput)}))
	ac := NewAcoustIDClient(key, "test-agent/1.0", WithBaseURL(srv.URL), WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	return NewIdentifier(fp, ac, catalog, threshold), srv
}

func TestAvailable(t *testing.T) {
	id, _ := newTestIdentifier(t, "", nil, 0.5)
	assert.ErrorIs(t, id.Available(context.Background()), ErrNoCredential)

	id, _ = newTestIdentifier(t, "key", nil, 0.5)
	assert.NoError(t, id.Available(context.Background()))
}

func TestIdentify_ResolvesThroughCatalog(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.On("GetRecording", mock.Anything, "rec-free-fallin").Return(fullMoonFever(), nil).Once()

	id, srv := newTestIdentifier(t, "key", catalog, 0.5)
	c, err := id.Identify(context.Background(), "/music/a.mp3")
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "Tom Petty", c.Artist)
	assert.Equal(t, "Free Fallin'", c.Title)
	assert.Equal(t, "Full Moon Fever", c.Album)
	assert.Equal(t, "01", c.TrackNumber)
	assert.Equal(t, "1989", c.Year)
	assert.Contains(t, c.ConfidenceNote, "acoustid score 0.93")
	assert.Equal(t, "test-agent/1.0", srv.LastUserAgent.Load())
	catalog.AssertExpectations(t)
}

func TestIdentify_BelowThreshold(t *testing.T) {
	catalog := &mockCatalog{}
	id, _ := newTestIdentifier(t, "key", catalog, 0.95)

	c, err := id.Identify(context.Background(), "/music/a.mp3")
	require.NoError(t, err)
	assert.Nil(t, c)
	catalog.AssertNotCalled(t, "GetRecording", mock.Anything, mock.Anything)
}

func TestIdentify_CatalogFailureKeepsAcoustIDNames(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.On("GetRecording", mock.Anything, "rec-free-fallin").Return(nil, errors.New("503"))

	id, _ := newTestIdentifier(t, "key", catalog, 0.5)
	c, err := id.Identify(context.Background(), "/music/a.mp3")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Tom Petty", c.Artist)
	assert.Equal(t, "Free Fallin'", c.Title)
	assert.Empty(t, c.Album)
	assert.False(t, c.Sufficient())
}

func TestIdentify_AcoustIDError(t *testing.T) {
	srv := testutil.MockJSONServer(t, map[string]string{
		"/lookup": `{"status": "error", "error": {"code": 4, "message": "invalid API key"}}`,
	})
	fp := NewFpcalc("fpcalc", time.Second, WithExecutor(&stubExecutor{out: []byte(jsonOutput)}))
	ac := NewAcoustIDClient("bad", "ua", WithBaseURL(srv.URL), WithLimiter(rate.NewLimiter(rate.Inf, 1)))

	_, err := NewIdentifier(fp, ac, nil, 0.5).Identify(context.Background(), "/music/a.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API key")
}

func TestLookup_SortsByScore(t *testing.T) {
	srv := testutil.MockJSONServer(t, map[string]string{"/lookup": testutil.AcoustIDLookupResponse})
	ac := NewAcoustIDClient("key", "ua", WithBaseURL(srv.URL), WithLimiter(rate.NewLimiter(rate.Inf, 1)))

	matches, err := ac.Lookup(context.Background(), &Result{Duration: 241, Fingerprint: "AQA"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "aid-high", matches[0].ID)
	assert.Equal(t, "Tom Petty", matches[0].Recordings[0].Artist())
}

func TestLookup_NoKey(t *testing.T) {
	_, err := NewAcoustIDClient(" ", "ua").Lookup(context.Background(), &Result{})
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestBestMatch(t *testing.T) {
	assert.Nil(t, BestMatch(nil))
	matches := []Match{
		{ID: "empty", Score: 0.99},
		{ID: "a", Score: 0.4, Recordings: []MatchRecording{{ID: "r1"}}},
		{ID: "b", Score: 0.8, Recordings: []MatchRecording{{ID: "r2"}}},
	}
	assert.Equal(t, "b", BestMatch(matches).ID)
}

func TestNewIdentifier_ThresholdFallback(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewIdentifier(nil, nil, nil, 0).threshold)
	assert.Equal(t, DefaultThreshold, NewIdentifier(nil, nil, nil, 1.5).threshold)
	assert.Equal(t, 0.7, NewIdentifier(nil, nil, nil, 0.7).threshold)
}
