// file: internal/config/file.go
// version: 1.0.0
// guid: 023fce6d-b672-4482-8799-a84533164a11

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML shape. Credentials are deliberately absent;
// they are read from the environment only.
type fileConfig struct {
	MusicPath            string   `yaml:"music_path"`
	DestPath             string   `yaml:"dest_path,omitempty"`
	DryRun               bool     `yaml:"dry_run"`
	PreserveApostrophes  bool     `yaml:"preserve_apostrophes"`
	TestFileCount        int      `yaml:"test_file_count"`
	Recursive            bool     `yaml:"recursive"`
	Extensions           []string `yaml:"extensions"`
	FpcalcPath           string   `yaml:"fpcalc_path"`
	FpcalcTimeout        string   `yaml:"fpcalc_timeout"`
	FingerprintThreshold float64  `yaml:"fingerprint_threshold"`
	OpenAIModel          string   `yaml:"openai_model"`
	SourceTimeout        string   `yaml:"source_timeout"`
	AppName              string   `yaml:"app_name"`
	AppVersion           string   `yaml:"app_version"`
	AppContact           string   `yaml:"app_contact"`
	ReportPath           string   `yaml:"report_path,omitempty"`
	MetricsPath          string   `yaml:"metrics_path,omitempty"`
}

// WriteFile saves cfg as a YAML config file that viper can read back.
// An existing file is never overwritten.
func WriteFile(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	fc := fileConfig{
		MusicPath:            cfg.MusicPath,
		DryRun:               cfg.DryRun,
		PreserveApostrophes:  cfg.PreserveApostrophes,
		TestFileCount:        cfg.TestFileCount,
		Recursive:            cfg.Recursive,
		Extensions:           cfg.SupportedExtensions,
		FpcalcPath:           cfg.FpcalcPath,
		FpcalcTimeout:        cfg.FpcalcTimeout.String(),
		FingerprintThreshold: cfg.FingerprintThreshold,
		OpenAIModel:          cfg.OpenAIModel,
		SourceTimeout:        cfg.SourceTimeout.String(),
		AppName:              cfg.AppName,
		AppVersion:           cfg.AppVersion,
		AppContact:           cfg.AppContact,
		ReportPath:           cfg.ReportPath,
		MetricsPath:          cfg.MetricsPath,
	}
	if cfg.DestPath != cfg.MusicPath {
		fc.DestPath = cfg.DestPath
	}

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
