package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mpd2mp4/internal/config"
	"mpd2mp4/internal/logging"
)

var stubScript = []byte("#!/bin/sh\nexit 0\n")

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, executableName(name))
	if err := os.WriteFile(path, stubScript, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func newTestResolver(t *testing.T, cfg *config.Config, exeDir string, opts ...ResolverOption) *Resolver {
	t.Helper()
	exe := filepath.Join(exeDir, "mpd2mp4")
	opts = append([]ResolverOption{
		WithExecutablePath(func() (string, error) { return exe, nil }),
		WithInstallers(
			func(context.Context) (string, error) { return "", errors.New("offline") },
			func(context.Context) (string, error) { return "", errors.New("offline") },
		),
	}, opts...)
	return NewResolver(cfg, logging.NewNop(), opts...)
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" || results[0].Origin != OriginSystem {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestResolveConfiguredBinaryWins(t *testing.T) {
	tmp := t.TempDir()
	configured := writeStub(t, filepath.Join(tmp, "custom"), "ffmpeg")
	writeStub(t, tmp, "ffmpeg")

	cfg := config.Default()
	cfg.FFmpeg.Binary = configured
	status := newTestResolver(t, &cfg, tmp).ResolveFFmpeg(context.Background())
	if !status.Available || status.Command != configured || status.Origin != OriginConfigured {
		t.Fatalf("expected configured ffmpeg, got %#v", status)
	}
}

func TestResolveConfiguredBinaryMissingDoesNotFallBack(t *testing.T) {
	tmp := t.TempDir()
	writeStub(t, tmp, "ffmpeg")

	cfg := config.Default()
	cfg.FFmpeg.Binary = filepath.Join(tmp, "nowhere", "ffmpeg")
	status := newTestResolver(t, &cfg, tmp).ResolveFFmpeg(context.Background())
	if status.Available {
		t.Fatalf("expected configured-but-missing ffmpeg to be unavailable, got %#v", status)
	}
	if status.Detail == "" {
		t.Fatal("expected detail for missing configured binary")
	}
}

func TestResolveBundledSidecar(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PATH", "")
	bundled := writeStub(t, filepath.Join(tmp, "bin"), "ffmpeg")

	cfg := config.Default()
	status := newTestResolver(t, &cfg, tmp).ResolveFFmpeg(context.Background())
	if !status.Available || status.Command != bundled || status.Origin != OriginBundled {
		t.Fatalf("expected bundled ffmpeg, got %#v", status)
	}
}

func TestResolveBundledDirOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PATH", "")
	bundleDir := filepath.Join(tmp, "vendor")
	want := writeStub(t, bundleDir, "yt-dlp")

	cfg := config.Default()
	cfg.FFmpeg.BundledDir = bundleDir
	status := newTestResolver(t, &cfg, filepath.Join(tmp, "elsewhere")).ResolveDownloader(context.Background())
	if !status.Available || status.Command != want || status.Origin != OriginBundled {
		t.Fatalf("expected yt-dlp from bundled dir, got %#v", status)
	}
}

func TestResolveBundledDirSharedByBothTools(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PATH", "")
	bundleDir := filepath.Join(tmp, "vendor")
	wantFFmpeg := writeStub(t, bundleDir, "ffmpeg")
	wantDownloader := writeStub(t, bundleDir, "yt-dlp")

	cfg := config.Default()
	cfg.FFmpeg.BundledDir = bundleDir
	binaries := newTestResolver(t, &cfg, filepath.Join(tmp, "elsewhere")).Resolve(context.Background())
	if binaries.FFmpeg.Command != wantFFmpeg || binaries.FFmpeg.Origin != OriginBundled {
		t.Fatalf("expected ffmpeg from bundled dir, got %#v", binaries.FFmpeg)
	}
	if binaries.Downloader.Command != wantDownloader || binaries.Downloader.Origin != OriginBundled {
		t.Fatalf("expected yt-dlp from bundled dir, got %#v", binaries.Downloader)
	}
}

func TestResolvePathFallback(t *testing.T) {
	tmp := t.TempDir()
	binDir := filepath.Join(tmp, "path-bin")
	want := writeStub(t, binDir, "ffmpeg")
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	status := newTestResolver(t, &cfg, filepath.Join(tmp, "app")).ResolveFFmpeg(context.Background())
	if !status.Available || status.Command != want || status.Origin != OriginSystem {
		t.Fatalf("expected ffmpeg from PATH, got %#v", status)
	}
}

func TestResolveManagedDownload(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PATH", "")

	cfg := config.Default()
	cfg.FFmpeg.AllowDownload = true
	calls := 0
	resolver := newTestResolver(t, &cfg, tmp, WithInstallers(func(context.Context) (string, error) {
		calls++
		return "/cache/ffmpeg", nil
	}, nil))

	status := resolver.ResolveFFmpeg(context.Background())
	if calls != 1 {
		t.Fatalf("expected one install call, got %d", calls)
	}
	if !status.Available || status.Origin != OriginDownloaded || status.Command != "/cache/ffmpeg" {
		t.Fatalf("expected downloaded ffmpeg, got %#v", status)
	}
}

func TestResolveNotFound(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PATH", "")

	cfg := config.Default()
	cfg.Downloader.AutoInstall = true
	bins := newTestResolver(t, &cfg, tmp).Resolve(context.Background())
	if bins.FFmpeg.Available || bins.FFmpegPath() != "" {
		t.Fatalf("expected ffmpeg unavailable, got %#v", bins.FFmpeg)
	}
	if bins.Downloader.Available || bins.DownloaderPath() != "" {
		t.Fatalf("expected yt-dlp unavailable after failed install, got %#v", bins.Downloader)
	}
	if bins.FFmpeg.Detail == "" || bins.Downloader.Detail == "" {
		t.Fatal("expected detail messages when binaries are unavailable")
	}
}

func TestResolveWithoutInstallSkipsManagedDownload(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("PATH", "")

	cfg := config.Default()
	cfg.FFmpeg.AllowDownload = true
	cfg.Downloader.AutoInstall = true
	calls := 0
	install := func(context.Context) (string, error) {
		calls++
		return "/cache/tool", nil
	}
	bins := newTestResolver(t, &cfg, tmp, WithInstallers(install, install), WithoutInstall()).Resolve(context.Background())
	if calls != 0 {
		t.Fatalf("expected no install calls, got %d", calls)
	}
	if bins.FFmpeg.Available || bins.Downloader.Available {
		t.Fatalf("expected both tools unavailable, got %#v", bins)
	}
}
