package services_test

import (
	"errors"
	"strings"
	"testing"

	"mpd2mp4/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalToolFailure, "ffmpeg", "remux", "exit status 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalToolFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ffmpeg", "remux", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToToolFailure(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalToolFailure) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, services.ExitOK},
		{"invalid input", services.Wrap(services.ErrInvalidInput, "source", "classify", "empty", nil), services.ExitInvalidInput},
		{"canceled", services.Wrap(services.ErrCanceled, "prompt", "", "", nil), services.ExitCanceled},
		{"missing tool", services.Wrap(services.ErrExternalToolMissing, "convert", "", "", nil), services.ExitFailure},
		{"write", services.Wrap(services.ErrOutputWrite, "convert", "", "", nil), services.ExitFailure},
		{"plain", errors.New("unclassified"), services.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHintForMissingTool(t *testing.T) {
	err := services.Wrap(services.ErrExternalToolMissing, "convert", "local", "ffmpeg not found", nil)
	if hint := services.Hint(err); !strings.Contains(hint, "FFmpeg") {
		t.Fatalf("expected install guidance, got %q", hint)
	}
	if hint := services.Hint(errors.New("other")); hint != "" {
		t.Fatalf("expected no hint, got %q", hint)
	}
}

func TestDiagnosticRoundTrip(t *testing.T) {
	base := services.Wrap(services.ErrExternalToolFailure, "ffmpeg", "remux", "", errors.New("exit status 1"))
	err := services.WithDiagnostic(base, "  No such file or directory\n")
	if !errors.Is(err, services.ErrExternalToolFailure) {
		t.Fatalf("diagnostic should preserve marker, got %v", err)
	}
	if got := services.DiagnosticOutput(err); got != "No such file or directory" {
		t.Fatalf("unexpected diagnostic output %q", got)
	}
	if services.WithDiagnostic(base, "   ") != base {
		t.Fatal("blank output should return the original error")
	}
	if services.WithDiagnostic(nil, "output") != nil {
		t.Fatal("nil error should stay nil")
	}
}
