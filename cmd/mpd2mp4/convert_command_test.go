package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mpd2mp4/internal/services"
	"mpd2mp4/internal/testsupport"
)

func TestConvertLocalManifestThroughPrompts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(testsupport.FFmpegStub))
	configPath := writeTestConfig(t, cfg)
	manifest := testsupport.WriteManifest(t, filepath.Join(t.TempDir(), "media"), "stream.mpd", testsupport.LocalManifest)
	workDir := t.TempDir()
	t.Chdir(workDir)

	out, _, err := runCLI(t, nil, manifest+"\nvideo\n", configPath)
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}
	requireContains(t, out, sourcePrompt)
	requireContains(t, out, outputPrompt)
	requireContains(t, out, "--- FFmpeg Output ---")
	requireContains(t, out, "[Success] Successfully saved as 'video.mp4'")

	data, err := os.ReadFile(filepath.Join(workDir, "video.mp4"))
	if err != nil || string(data) != "remuxed" {
		t.Fatalf("expected remuxed output, got %q (err=%v)", data, err)
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file in %s, got %d", workDir, len(entries))
	}
}

func TestConvertFlagsSkipPrompts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(testsupport.FFmpegStub))
	configPath := writeTestConfig(t, cfg)
	manifest := testsupport.WriteManifest(t, t.TempDir(), "stream.mpd", testsupport.LocalManifest)
	output := filepath.Join(t.TempDir(), "clip.mkv")

	out, _, err := runCLI(t, []string{"--source", manifest, "--output", output}, "", configPath)
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}
	if strings.Contains(out, sourcePrompt) || strings.Contains(out, outputPrompt) {
		t.Fatalf("prompts should be skipped when flags are set:\n%s", out)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output at %s: %v", output, err)
	}
}

func TestConvertDefaultsOutputName(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(testsupport.FFmpegStub))
	configPath := writeTestConfig(t, cfg)
	manifest := testsupport.WriteManifest(t, t.TempDir(), "stream.mpd", testsupport.LocalManifest)
	workDir := t.TempDir()
	t.Chdir(workDir)

	out, _, err := runCLI(t, []string{"--source", manifest}, "\n", configPath)
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}
	requireContains(t, out, "No filename provided. Defaulting to 'output.mp4'")
	if _, err := os.Stat(filepath.Join(workDir, "output.mp4")); err != nil {
		t.Fatalf("expected default output: %v", err)
	}
}

func TestConvertLocalWithoutFFmpegFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMissingFFmpeg())
	configPath := writeTestConfig(t, cfg)
	manifest := testsupport.WriteManifest(t, t.TempDir(), "stream.mpd", testsupport.LocalManifest)
	outDir := t.TempDir()

	out, _, err := runCLI(t, []string{"--source", manifest, "--output", filepath.Join(outDir, "video.mp4")}, "", configPath)
	if !errors.Is(err, services.ErrExternalToolMissing) {
		t.Fatalf("expected ErrExternalToolMissing, got %v", err)
	}
	if services.ExitCode(err) != services.ExitFailure {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
	requireContains(t, out, "[Error] convert: plan: FFmpeg is required to process local MPD files")
	requireContains(t, out, "[Tip]")
	if entries, _ := os.ReadDir(outDir); len(entries) != 0 {
		t.Fatalf("expected no output files, got %d", len(entries))
	}
}

func TestConvertFFmpegFailureReportsReturnCode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegScript(testsupport.FailingStub))
	configPath := writeTestConfig(t, cfg)
	manifest := testsupport.WriteManifest(t, t.TempDir(), "stream.mpd", testsupport.LocalManifest)
	outDir := t.TempDir()

	out, _, err := runCLI(t, []string{"--source", manifest, "--output", filepath.Join(outDir, "video.mp4")}, "", configPath)
	if !errors.Is(err, services.ErrExternalToolFailure) {
		t.Fatalf("expected ErrExternalToolFailure, got %v", err)
	}
	requireContains(t, out, "FFmpeg failed with return code 1")
	requireContains(t, out, "stub failure")
	if entries, _ := os.ReadDir(outDir); len(entries) != 0 {
		t.Fatalf("expected temp output to be removed, got %d entries", len(entries))
	}
}

func TestConvertEmptySourceIsInvalidInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, nil, "   \n", configPath)
	if services.ExitCode(err) != services.ExitInvalidInput {
		t.Fatalf("expected invalid input exit code, got %d (%v)", services.ExitCode(err), err)
	}
	requireContains(t, out, "[Error] source: classify: Input cannot be empty")
}

func TestConvertMissingLocalFileIsInvalidInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"--source", filepath.Join(t.TempDir(), "absent.mpd")}, "", configPath)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
