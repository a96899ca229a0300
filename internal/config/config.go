// file: internal/config/config.go
// version: 2.1.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid marks a configuration problem that must stop the run
var ErrInvalid = errors.New("invalid configuration")

// Config holds application configuration. It is read once at startup and
// passed explicitly to the components that need it.
type Config struct {
	MusicPath           string
	DestPath            string
	DryRun              bool
	PreserveApostrophes bool
	TestFileCount       int
	Recursive           bool
	SupportedExtensions []string

	AcoustIDAPIKey       string
	FpcalcPath           string
	FpcalcTimeout        time.Duration
	FingerprintThreshold float64

	OpenAIAPIKey string
	OpenAIModel  string

	SourceTimeout time.Duration

	// Client identity sent to the catalog, required by its usage policy
	AppName    string
	AppVersion string
	AppContact string

	ReportPath  string
	MetricsPath string
}

// envBindings maps config keys to the environment variables that may set them
var envBindings = map[string][]string{
	"music_path":            {"MUSIC_PATH"},
	"dest_path":             {"DEST_PATH"},
	"dry_run":               {"DRY_RUN"},
	"preserve_apostrophes":  {"PRESERVE_APOSTROPHES"},
	"test_file_count":       {"TEST_FILE_COUNT"},
	"recursive":             {"RECURSIVE"},
	"acoustid_api_key":      {"ACOUSTID_USER_API_KEY", "ACOUSTID_API_KEY"},
	"fpcalc_path":           {"FPCALC_PATH"},
	"fpcalc_timeout":        {"FPCALC_TIMEOUT"},
	"fingerprint_threshold": {"FINGERPRINT_THRESHOLD"},
	"openai_api_key":        {"OPENAI_API_KEY"},
	"openai_model":          {"OPENAI_MODEL"},
	"source_timeout":        {"SOURCE_TIMEOUT"},
	"app_name":              {"APP_NAME"},
	"app_version":           {"APP_VERSION"},
	"app_contact":           {"APP_CONTACT"},
	"report_path":           {"REPORT_PATH"},
	"metrics_path":          {"METRICS_PATH"},
}

// DefaultExtensions lists the audio formats picked up by the scanner
var DefaultExtensions = []string{".mp3", ".flac", ".m4a", ".ogg", ".opus", ".wma", ".aac", ".wav"}

// SetDefaults registers default values and environment bindings on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dry_run", true)
	v.SetDefault("preserve_apostrophes", false)
	v.SetDefault("test_file_count", 0)
	v.SetDefault("recursive", false)
	v.SetDefault("extensions", DefaultExtensions)
	v.SetDefault("fpcalc_path", "fpcalc")
	v.SetDefault("fpcalc_timeout", "30s")
	v.SetDefault("fingerprint_threshold", 0.5)
	v.SetDefault("openai_model", "gpt-4.1-mini")
	v.SetDefault("source_timeout", "60s")
	v.SetDefault("app_name", "music-organizer")
	v.SetDefault("app_version", "1.0")
	v.SetDefault("app_contact", "")

	v.SetEnvPrefix("MUSIC_ORGANIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		names := append([]string{key, "MUSIC_ORGANIZER_" + strings.ToUpper(key)}, envs...)
		_ = v.BindEnv(names...)
	}
}

// Load builds a Config from v. Call SetDefaults first.
func Load(v *viper.Viper) Config {
	cfg := Config{
		MusicPath:            strings.TrimSpace(v.GetString("music_path")),
		DestPath:             strings.TrimSpace(v.GetString("dest_path")),
		DryRun:               v.GetBool("dry_run"),
		PreserveApostrophes:  v.GetBool("preserve_apostrophes"),
		TestFileCount:        v.GetInt("test_file_count"),
		Recursive:            v.GetBool("recursive"),
		SupportedExtensions:  normalizeExtensions(v.GetStringSlice("extensions")),
		AcoustIDAPIKey:       strings.TrimSpace(v.GetString("acoustid_api_key")),
		FpcalcPath:           v.GetString("fpcalc_path"),
		FpcalcTimeout:        durationValue(v, "fpcalc_timeout"),
		FingerprintThreshold: v.GetFloat64("fingerprint_threshold"),
		OpenAIAPIKey:         strings.TrimSpace(v.GetString("openai_api_key")),
		OpenAIModel:          v.GetString("openai_model"),
		SourceTimeout:        durationValue(v, "source_timeout"),
		AppName:              v.GetString("app_name"),
		AppVersion:           v.GetString("app_version"),
		AppContact:           v.GetString("app_contact"),
		ReportPath:           v.GetString("report_path"),
		MetricsPath:          v.GetString("metrics_path"),
	}

	if cfg.DestPath == "" {
		cfg.DestPath = cfg.MusicPath
	}
	if cfg.TestFileCount < 0 {
		cfg.TestFileCount = 0
	}
	if cfg.FpcalcTimeout <= 0 {
		cfg.FpcalcTimeout = 30 * time.Second
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 60 * time.Second
	}
	if len(cfg.SupportedExtensions) == 0 {
		cfg.SupportedExtensions = append([]string(nil), DefaultExtensions...)
	}
	return cfg
}

// durationValue reads a duration, treating a bare number as seconds
func durationValue(v *viper.Viper, key string) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return v.GetDuration(key)
}

// normalizeExtensions lower-cases extensions and ensures a leading dot
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// Validate checks the settings whose failure is fatal for a run
func (c Config) Validate() error {
	if c.MusicPath == "" {
		return fmt.Errorf("%w: music path not specified (set MUSIC_PATH or --dir)", ErrInvalid)
	}
	if _, err := os.ReadDir(c.MusicPath); err != nil {
		return fmt.Errorf("%w: source root unreadable: %v", ErrInvalid, err)
	}
	if c.FingerprintThreshold < 0 || c.FingerprintThreshold > 1 {
		return fmt.Errorf("%w: fingerprint threshold %.2f outside [0,1]", ErrInvalid, c.FingerprintThreshold)
	}
	return nil
}

// EnsureDestination creates the destination root if it is missing. In a dry
// run nothing is created and the caller is told whether it would have been.
func (c Config) EnsureDestination() (created bool, err error) {
	info, err := os.Stat(c.DestPath)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%w: destination %s is not a directory", ErrInvalid, c.DestPath)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("%w: destination root: %v", ErrInvalid, err)
	}
	if c.DryRun {
		return true, nil
	}
	if err := os.MkdirAll(c.DestPath, 0755); err != nil {
		return false, fmt.Errorf("%w: cannot create destination root: %v", ErrInvalid, err)
	}
	return true, nil
}

// UserAgent renders the catalog client identity as "name/version ( contact )"
func (c Config) UserAgent() string {
	name := c.AppName
	if name == "" {
		name = "music-organizer"
	}
	ua := name
	if c.AppVersion != "" {
		ua += "/" + c.AppVersion
	}
	if c.AppContact != "" {
		ua += " ( " + c.AppContact + " )"
	}
	return ua
}
