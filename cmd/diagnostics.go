// file: cmd/diagnostics.go
// version: 2.1.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jdfalk/music-organizer/internal/config"
	"github.com/jdfalk/music-organizer/internal/fingerprint"
	"github.com/jdfalk/music-organizer/internal/musicbrainz"
	"github.com/jdfalk/music-organizer/internal/runner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const probeTimeout = 20 * time.Second

// A well-known recording the online catalog check searches for
const (
	onlineCheckArtist = "Radiohead"
	onlineCheckTitle  = "Karma Police"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report which identification sources are usable",
	Long: `Check that fpcalc can be executed and which API credentials are set.
With --online one request is made to each configured remote service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		online, _ := cmd.Flags().GetBool("online")
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		runProbe(ctx, config.Load(viper.GetViper()), online, cmd.OutOrStdout())
		return nil
	},
}

// sourceCheck is one row of the probe table
type sourceCheck struct {
	name   string
	status string
	detail string
}

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
	statusNotSet      = "not set"
	statusFailed      = "failed"
	statusSkipped     = "skipped"
)

func collectChecks(ctx context.Context, cfg config.Config, src *runner.Sources, online bool) []sourceCheck {
	var checks []sourceCheck

	fpcalc := sourceCheck{name: "fpcalc", status: statusOK, detail: cfg.FpcalcPath}
	if err := src.Fpcalc.Probe(ctx); err != nil {
		fpcalc.status = statusUnavailable
		fpcalc.detail = err.Error()
	}
	checks = append(checks, fpcalc)

	checks = append(checks, credentialCheck("AcoustID key", src.AcoustID.HasKey(), "ACOUSTID_USER_API_KEY"))
	checks = append(checks, credentialCheck("OpenAI key", src.Guesser.Enabled(), "OPENAI_API_KEY"))

	fingerprinting := sourceCheck{name: "fingerprint stage", status: statusOK}
	if err := src.Identifier.Available(ctx); err != nil {
		fingerprinting.status = statusUnavailable
		fingerprinting.detail = err.Error()
		if errors.Is(err, fingerprint.ErrNoCredential) {
			fingerprinting.detail = "no AcoustID key"
		}
	}
	checks = append(checks, fingerprinting)

	if !online {
		return checks
	}

	catalog := sourceCheck{name: "MusicBrainz", status: statusOK, detail: cfg.UserAgent()}
	if _, err := src.Catalog.SearchRecordings(ctx, musicbrainz.BuildQuery(onlineCheckArtist, onlineCheckTitle, ""), 1); err != nil {
		catalog.status = statusFailed
		catalog.detail = err.Error()
	}
	checks = append(checks, catalog)

	llm := sourceCheck{name: "OpenAI", status: statusSkipped, detail: "no key"}
	if src.Guesser.Enabled() {
		llm = sourceCheck{name: "OpenAI", status: statusOK, detail: src.Guesser.Model()}
		if err := src.Guesser.TestConnection(ctx); err != nil {
			llm.status = statusFailed
			llm.detail = err.Error()
		}
	}
	checks = append(checks, llm)

	return checks
}

func credentialCheck(name string, set bool, env string) sourceCheck {
	if set {
		return sourceCheck{name: name, status: statusOK}
	}
	return sourceCheck{name: name, status: statusNotSet, detail: "set " + env}
}

func runProbe(ctx context.Context, cfg config.Config, online bool, w io.Writer) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	checks := collectChecks(ctx, cfg, runner.NewSources(cfg), online)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Check", "Status", "Detail"})
	for _, c := range checks {
		tw.AppendRow(table.Row{c.name, c.status, c.detail})
	}
	tw.Render()

	if !online {
		fmt.Fprintln(w, "Run with --online to contact the remote services.")
	}
}
