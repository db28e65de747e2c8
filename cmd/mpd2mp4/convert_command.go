package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mpd2mp4/internal/convert"
	"mpd2mp4/internal/deps"
	"mpd2mp4/internal/notifications"
	"mpd2mp4/internal/progress"
	"mpd2mp4/internal/prompt"
	"mpd2mp4/internal/services"
	"mpd2mp4/internal/source"
)

const (
	bannerTitle  = "MPD to MP4 Downloader"
	sourcePrompt = "Enter the .mpd URL or Local File Path:"
	outputPrompt = "Enter the desired output filename (e.g., video.mp4):"
)

// reportedError marks an error whose message was already printed as a
// status line.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func runConvert(cmd *cobra.Command, ctx *commandContext, flags convertFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	out := cmd.OutOrStdout()
	status := newStatusPrinter(out)
	fmt.Fprintln(out, renderBanner(bannerTitle, status.colorize))
	fmt.Fprintln(out)

	ask := prompt.New(cmd.InOrStdin(), out)

	rawSource := flags.source
	if strings.TrimSpace(rawSource) == "" {
		rawSource, err = ask.Ask(runCtx, sourcePrompt, "https://example.com/manifest.mpd")
		if err != nil {
			return report(status, err, convert.Result{})
		}
	}
	src, err := source.Classify(rawSource)
	if err != nil {
		return report(status, err, convert.Result{})
	}

	rawOutput := flags.output
	if !cmd.Flags().Changed("output") {
		rawOutput, err = ask.Ask(runCtx, outputPrompt, cfg.Output.DefaultName)
		if err != nil {
			return report(status, err, convert.Result{})
		}
	}
	outputPath, usedDefault, err := convert.ResolveOutputName(rawOutput, cfg)
	if err != nil {
		return report(status, err, convert.Result{})
	}
	if usedDefault {
		status.printf(statusInfo, "No filename provided. Defaulting to '%s'", filepath.Base(outputPath))
	}

	binaries := deps.NewResolver(cfg, logger).Resolve(runCtx)
	printBinaryStatus(status, binaries)

	reporter := progress.NewReporter(out, progress.WithLogger(logger))
	defer reporter.Close()

	dispatcher := convert.NewDispatcher(cfg, binaries,
		convert.WithLogger(logger),
		convert.WithProgressSink(reporter),
		convert.WithNotifier(notifications.NewService(cfg)),
		convert.WithStatus(status.convertStatus),
		convert.WithToolOutput(func(line string) { fmt.Fprintln(out, line) }),
	)
	result, err := dispatcher.Convert(runCtx, convert.Request{
		Source:     src,
		OutputPath: outputPath,
		Referer:    strings.TrimSpace(flags.referer),
	})
	reporter.Close()
	if err != nil {
		return report(status, err, result)
	}

	fmt.Fprintln(out)
	status.printf(statusSuccess, "Successfully saved as '%s'", displayPath(outputPath))
	return nil
}

func printBinaryStatus(status *statusPrinter, binaries deps.Binaries) {
	if binaries.FFmpeg.Available {
		status.printf(statusInfo, "Using %s FFmpeg from: %s", binaries.FFmpeg.Origin, binaries.FFmpeg.Command)
	} else {
		status.print(statusWarn, "FFmpeg is not detected! Merging video and audio streams might fail.")
	}
	if !binaries.Downloader.Available {
		status.print(statusWarn, "yt-dlp is not available; remote manifests cannot be downloaded.")
	}
}

// report prints err as status lines and marks it as reported.
func report(status *statusPrinter, err error, result convert.Result) error {
	if errors.Is(err, services.ErrCanceled) {
		fmt.Fprintln(status.w)
		status.print(statusInfo, "Canceled.")
		return &reportedError{err: err}
	}
	fmt.Fprintln(status.w)
	status.print(statusError, userMessage(err))
	if diag := services.DiagnosticOutput(err); diag != "" && result.Strategy != convert.StrategyLocal {
		printDiagnostic(status.w, diag)
	}
	if hint := services.Hint(err); hint != "" {
		status.print(statusTip, hint)
	}
	if result.Strategy == convert.StrategyLocal && errors.Is(err, services.ErrExternalToolFailure) {
		status.print(statusTip, "The MPD file might reference fragments that don't exist locally, or the file paths in the manifest might be incorrect.")
	}
	return &reportedError{err: err}
}

func printDiagnostic(w io.Writer, diag string) {
	fmt.Fprintln(w, "--- Tool Output ---")
	fmt.Fprintln(w, diag)
	fmt.Fprintln(w, "--- End Tool Output ---")
}

var errorMarkers = []error{
	services.ErrInvalidInput,
	services.ErrExternalToolMissing,
	services.ErrExternalToolFailure,
	services.ErrOutputWrite,
	services.ErrConfiguration,
	services.ErrCanceled,
}

// userMessage drops the classification prefix that services.Wrap adds.
func userMessage(err error) string {
	msg := err.Error()
	for _, marker := range errorMarkers {
		if prefix := marker.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
