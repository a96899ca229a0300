// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jdfalk/music-organizer/internal/config"
	"github.com/jdfalk/music-organizer/internal/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// version is overridden at build time with -ldflags "-X .../cmd.version=..."
var version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "music-organizer",
	Short: "Identify music files and organize them into Artist/Album folders",
	Long: `Music Organizer identifies audio files from their tags, an acoustic
fingerprint lookup or a language-model reading of the filename verified
against MusicBrainz, then renames them into Artist/Album/NN - Title and
rewrites their tags. Files that cannot be identified are moved into a
"reviewed" folder under the destination.

Runs are dry by default; pass --dry-run=false to change anything.`,
	SilenceUsage: true,
}

// organizeCmd represents the organize command
var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Identify, rename and retag every audio file in the music directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrganize(cmd)
	},
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "music-organizer %s\n", version)
	},
}

// initConfigCmd writes the effective configuration to a file
var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the current settings to a config file",
	Long: `Write the effective settings (defaults, environment and flags) to the
--config path, or $HOME/.music-organizer.yaml. API keys are never written;
keep them in the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.WriteFile(path, config.Load(viper.GetViper())); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.music-organizer.yaml)")
	rootCmd.PersistentFlags().String("dir", "", "music directory to scan (MUSIC_PATH)")
	rootCmd.PersistentFlags().String("dest", "", "destination root, defaults to the music directory (DEST_PATH)")

	organizeCmd.Flags().Bool("dry-run", true, "log what would change without moving or retagging")
	organizeCmd.Flags().Int("limit", 0, "process at most this many files, 0 for all (TEST_FILE_COUNT)")
	organizeCmd.Flags().Bool("recursive", false, "descend into subdirectories of the music directory")
	organizeCmd.Flags().Bool("preserve-apostrophes", false, "keep apostrophes in track filenames")
	organizeCmd.Flags().String("report", "", "write a YAML report of the run to this path")
	organizeCmd.Flags().String("metrics-file", "", "write Prometheus metrics in textfile format to this path")

	probeCmd.Flags().Bool("online", false, "also make one request to each configured remote service")

	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initConfigCmd)
}

// bindFlags connects flags to their config keys. Safe to call repeatedly.
func bindFlags() {
	bindings := []struct {
		key  string
		cmd  *cobra.Command
		flag string
	}{
		{"music_path", rootCmd, "dir"},
		{"dest_path", rootCmd, "dest"},
		{"dry_run", organizeCmd, "dry-run"},
		{"test_file_count", organizeCmd, "limit"},
		{"recursive", organizeCmd, "recursive"},
		{"preserve_apostrophes", organizeCmd, "preserve-apostrophes"},
		{"report_path", organizeCmd, "report"},
		{"metrics_path", organizeCmd, "metrics-file"},
	}
	for _, b := range bindings {
		flag := b.cmd.Flags().Lookup(b.flag)
		if flag == nil {
			flag = b.cmd.PersistentFlags().Lookup(b.flag)
		}
		_ = viper.BindPFlag(b.key, flag)
	}
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".music-organizer.yaml"), nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".music-organizer")
	}

	config.SetDefaults(viper.GetViper())
	bindFlags()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runOrganize(cmd *cobra.Command) error {
	cfg := config.Load(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return err
	}
	created, err := cfg.EnsureDestination()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if created {
		if cfg.DryRun {
			fmt.Fprintf(out, "Destination %s does not exist and would be created\n", cfg.DestPath)
		} else {
			fmt.Fprintf(out, "Created destination %s\n", cfg.DestPath)
		}
	}
	fmt.Fprintf(out, "Scanning %s\n", cfg.MusicPath)

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner.FromConfig(cfg, out).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	runner.RenderSummary(out, report)
	if cfg.ReportPath != "" {
		fmt.Fprintf(out, "Report written to %s\n", cfg.ReportPath)
	}
	return nil
}
