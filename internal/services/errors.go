package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrExternalToolMissing = errors.New("external tool missing")
	ErrExternalToolFailure = errors.New("external tool failure")
	ErrOutputWrite         = errors.New("output write error")
	ErrConfiguration       = errors.New("configuration error")
	ErrCanceled            = errors.New("canceled")
)

// Exit codes returned by the CLI for each error class.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitCanceled     = 130
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalToolFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrCanceled):
		return ExitCanceled
	case errors.Is(err, ErrInvalidInput):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}

// Hint returns follow-up guidance for the error class, or an empty string.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrExternalToolMissing):
		return "Install FFmpeg (https://ffmpeg.org/download.html) or yt-dlp (https://github.com/yt-dlp/yt-dlp), place it next to the mpd2mp4 binary, or enable ffmpeg.allow_download / downloader.auto_install in the config"
	case errors.Is(err, ErrOutputWrite):
		return "Check that the destination directory exists and is writable"
	case errors.Is(err, ErrConfiguration):
		return "Run 'mpd2mp4 config validate' to inspect the configuration"
	case errors.Is(err, ErrExternalToolFailure):
		return "The partial output was discarded; inspect the tool output above for the cause"
	default:
		return ""
	}
}

// Diagnostic attaches captured tool output to an error while preserving the
// wrapped chain.
type Diagnostic struct {
	Err    error
	Output string
}

func (d *Diagnostic) Error() string {
	if d == nil || d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

func (d *Diagnostic) Unwrap() error {
	if d == nil {
		return nil
	}
	return d.Err
}

// WithDiagnostic wraps err with the trimmed tool output. Empty output returns
// err unchanged.
func WithDiagnostic(err error, output string) error {
	if err == nil {
		return nil
	}
	output = strings.TrimSpace(output)
	if output == "" {
		return err
	}
	return &Diagnostic{Err: err, Output: output}
}

// DiagnosticOutput extracts tool output captured by WithDiagnostic.
func DiagnosticOutput(err error) string {
	var diag *Diagnostic
	if errors.As(err, &diag) {
		return diag.Output
	}
	return ""
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
