// file: cmd/diagnostics_test.go
// version: 2.1.0
// guid: 3b9d7e21-6c4a-4f10-a8e2-95d0c3b7f614

package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jdfalk/music-organizer/internal/config"
	"github.com/jdfalk/music-organizer/internal/musicbrainz"
	"github.com/jdfalk/music-organizer/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func offlineConfig(t *testing.T) config.Config {
	return config.Config{
		FpcalcPath:    filepath.Join(t.TempDir(), "no-such-fpcalc"),
		FpcalcTimeout: 2 * time.Second,
		AppName:       "music-organizer",
		AppVersion:    "test",
	}
}

func TestCollectChecks_Offline(t *testing.T) {
	cfg := offlineConfig(t)
	checks := collectChecks(context.Background(), cfg, runner.NewSources(cfg), false)

	byName := map[string]sourceCheck{}
	for _, c := range checks {
		byName[c.name] = c
	}
	assert.Len(t, checks, 4)
	assert.Equal(t, statusUnavailable, byName["fpcalc"].status)
	assert.Equal(t, statusNotSet, byName["AcoustID key"].status)
	assert.Equal(t, statusNotSet, byName["OpenAI key"].status)
	assert.Equal(t, "no AcoustID key", byName["fingerprint stage"].detail)
}

func TestCollectChecks_Credentials(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.AcoustIDAPIKey = "acoustid"
	cfg.OpenAIAPIKey = "sk-test"
	checks := collectChecks(context.Background(), cfg, runner.NewSources(cfg), false)

	byName := map[string]sourceCheck{}
	for _, c := range checks {
		byName[c.name] = c
	}
	assert.Equal(t, statusOK, byName["AcoustID key"].status)
	assert.Equal(t, statusOK, byName["OpenAI key"].status)
	// with a key the stage is gated on fpcalc alone
	assert.Equal(t, statusUnavailable, byName["fingerprint stage"].status)
	assert.Contains(t, byName["fingerprint stage"].detail, "no-such-fpcalc")
}

func TestRunProbe_RendersTable(t *testing.T) {
	var buf bytes.Buffer
	runProbe(context.Background(), offlineConfig(t), false, &buf)

	out := buf.String()
	assert.Contains(t, out, "fpcalc")
	assert.Contains(t, out, "set ACOUSTID_USER_API_KEY")
	assert.Contains(t, out, "--online")
}

func TestCollectChecks_OnlineSearchesCatalog(t *testing.T) {
	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"count":0,"recordings":[]}`))
	}))
	defer srv.Close()

	cfg := offlineConfig(t)
	src := runner.NewSources(cfg)
	src.Catalog = musicbrainz.NewClient(cfg.UserAgent(),
		musicbrainz.WithBaseURL(srv.URL),
		musicbrainz.WithLimiter(rate.NewLimiter(rate.Inf, 1)))

	checks := collectChecks(context.Background(), cfg, src, true)
	byName := map[string]sourceCheck{}
	for _, c := range checks {
		byName[c.name] = c
	}
	assert.Equal(t, statusOK, byName["MusicBrainz"].status)
	assert.Equal(t, statusSkipped, byName["OpenAI"].status)

	got, ok := query.Load().(string)
	require.True(t, ok)
	assert.Equal(t, musicbrainz.BuildQuery(onlineCheckArtist, onlineCheckTitle, ""), got)
	assert.NotContains(t, got, "Petty")
}
