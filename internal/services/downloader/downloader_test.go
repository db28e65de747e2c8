package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"mpd2mp4/internal/services"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"complete", Options{Format: "best", OutputTemplate: "/tmp/out.mp4"}, true},
		{"missing output", Options{Format: "best"}, false},
		{"missing format", Options{OutputTemplate: "/tmp/out.mp4"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, services.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestDownloadRequiresURL(t *testing.T) {
	client := New(nil)
	err := client.Download(context.Background(), "  ", Options{Format: "best", OutputTemplate: "out.mp4"})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDownloadFailureCarriesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "yt-dlp")
	body := "#!/bin/sh\necho 'ERROR: Unable to download manifest' >&2\nexit 1\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	err := New(nil).Download(context.Background(), "https://example.com/stream.mpd", Options{
		Executable:     script,
		Format:         "bestvideo+bestaudio/best",
		OutputTemplate: filepath.Join(dir, "out.mp4"),
	})
	if !errors.Is(err, services.ErrExternalToolFailure) {
		t.Fatalf("expected ErrExternalToolFailure, got %v", err)
	}
	if !strings.Contains(services.DiagnosticOutput(err), "Unable to download manifest") {
		t.Fatalf("expected stderr diagnostics, got %q", services.DiagnosticOutput(err))
	}
}

func TestTailLines(t *testing.T) {
	text := "one\ntwo\nthree\nfour\n"
	if got := tailLines(text, 2); got != "three\nfour" {
		t.Fatalf("tailLines = %q", got)
	}
	if got := tailLines("   ", 2); got != "" {
		t.Fatalf("expected empty tail, got %q", got)
	}
}
