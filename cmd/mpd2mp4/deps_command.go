package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mpd2mp4/internal/deps"
	"mpd2mp4/internal/preflight"
	"mpd2mp4/internal/services/ffprobe"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var install bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Show external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var opts []deps.ResolverOption
			if !install {
				opts = append(opts, deps.WithoutInstall())
			}
			binaries := deps.NewResolver(cfg, logger, opts...).Resolve(cmd.Context())
			statuses := []deps.Status{binaries.Downloader, binaries.FFmpeg}
			statuses = append(statuses, deps.CheckBinaries([]deps.Requirement{{
				Name:        "ffprobe",
				Command:     ffprobe.Candidate(binaries.FFmpegPath()),
				Description: "Summarizes finished outputs",
				Optional:    true,
			}})...)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Available", "Origin", "Location", "Purpose"},
				dependencyRows(statuses),
			))

			wd, _ := os.Getwd()
			checks := preflight.RunAll(cfg, wd)
			if len(checks) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Detail"}, preflightRows(checks)))
			}

			status := newStatusPrinter(out)
			for _, line := range dependencySummary(statuses) {
				status.print(line.kind, line.message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "Download managed copies of missing tools when the config allows it")
	return cmd
}

func dependencyRows(statuses []deps.Status) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		origin := string(s.Origin)
		location := s.Command
		if !s.Available {
			origin = "-"
			if s.Detail != "" {
				location = s.Detail
			}
		}
		purpose := s.Description
		if s.Optional {
			purpose += " (optional)"
		}
		rows = append(rows, []string{s.Name, yesNo(s.Available), origin, location, purpose})
	}
	return rows
}

func preflightRows(results []preflight.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
	}
	return rows
}

type summaryLine struct {
	kind    statusKind
	message string
}

func dependencySummary(statuses []deps.Status) []summaryLine {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	if len(missing) == 0 {
		return []summaryLine{{kind: statusSuccess, message: "All external tools are available"}}
	}
	return []summaryLine{
		{kind: statusWarn, message: "Missing dependencies: " + strings.Join(missing, ", ")},
		{kind: statusTip, message: "Run 'mpd2mp4 deps --install' to fetch managed copies, or install them manually"},
	}
}
