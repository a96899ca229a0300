// file: cmd/root_test.go
// version: 2.0.0
// guid: 7eae8d0c-7fda-4f45-8f73-5d1e0c7c9f1a

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jdfalk/music-organizer/internal/config"
	"github.com/jdfalk/music-organizer/internal/metadata"
	"github.com/jdfalk/music-organizer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears credentials and points HOME at an empty directory so no
// real config file or network service is used
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{
		"MUSIC_PATH", "DEST_PATH", "DRY_RUN", "TEST_FILE_COUNT",
		"ACOUSTID_USER_API_KEY", "ACOUSTID_API_KEY", "OPENAI_API_KEY",
		"REPORT_PATH", "METRICS_PATH",
	} {
		t.Setenv(env, "")
	}
	origCfg := cfgFile
	t.Cleanup(func() { cfgFile = origCfg })
	cfgFile = ""
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "music-organizer "+version)
}

func TestExecuteHelp(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "organize")
	assert.Contains(t, out, "probe")
}

func TestOrganizeRequiresMusicPath(t *testing.T) {
	isolate(t)
	_, err := execute(t, "organize", "--dir", "", "--dest", "", "--dry-run")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestOrganizeDryRunQuarantinesUnknownFile(t *testing.T) {
	isolate(t)
	lib := testutil.SetupLibrary(t)
	src := testutil.WriteFile(t, filepath.Join(lib.Source, "track01.mp3"), "not really audio")

	out, err := execute(t, "organize", "--dir", lib.Source, "--dest", lib.Dest, "--dry-run", "--limit", "0")
	require.NoError(t, err)

	assert.FileExists(t, src)
	assert.NoDirExists(t, filepath.Join(lib.Dest, "reviewed"))
	assert.Contains(t, out, "Quarantined")
	assert.Contains(t, out, "dry run")
}

func TestOrganizeMovesTaggedFile(t *testing.T) {
	isolate(t)
	lib := testutil.SetupLibrary(t)
	src := testutil.WriteMP3(t, filepath.Join(lib.Source, "03_tom_petty_-_free_fallin.mp3"), testutil.MP3Tags{
		Artist: "Tom Petty",
		Title:  "Free Fallin'",
		Album:  "Full Moon Fever",
		Track:  "1",
		Year:   "1989",
	})
	reportPath := filepath.Join(t.TempDir(), "run.yaml")

	out, err := execute(t, "organize", "--dir", lib.Source, "--dest", lib.Dest,
		"--dry-run=false", "--limit", "0", "--report", reportPath)
	require.NoError(t, err)

	target := filepath.Join(lib.Dest, "Tom Petty", "Full Moon Fever", "01 - Free Fallin.mp3")
	assert.NoFileExists(t, src)
	require.FileExists(t, target)
	assert.FileExists(t, reportPath)
	assert.Contains(t, out, "Resolved from local tags")

	tags, err := metadata.ExtractMetadata(target)
	require.NoError(t, err)
	assert.Equal(t, "Tom Petty", tags.Artist)
	assert.Equal(t, "1", tags.TrackNumber)
}

func TestInitConfigWritesOnce(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "music.yaml")

	out, err := execute(t, "init-config", "--config", path, "--dir", "/music")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "music_path: /music")
	assert.NotContains(t, string(data), "api_key")

	_, err = execute(t, "init-config", "--config", path)
	assert.Error(t, err)
}
