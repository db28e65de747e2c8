package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"mpd2mp4/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory. Managed
// downloads are disabled so tests never reach the network, and the binary
// environment overrides are cleared.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Downloader.AutoInstall = false
	cfgVal.FFmpeg.AllowDownload = false
	cfgVal.FFmpeg.BundledDir = filepath.Join(base, "bundled")

	t.Setenv("MPD2MP4_FFMPEG", "")
	t.Setenv("MPD2MP4_YTDLP", "")
	t.Setenv("MPD2MP4_NTFY_TOPIC", "")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// FFmpegStub writes the file named by its last argument, which is where a
// remux places its output.
const FFmpegStub = "#!/bin/sh\nfor last; do :; done\nprintf 'remuxed' > \"$last\"\n"

// FailingStub prints to stderr and exits non-zero.
const FailingStub = "#!/bin/sh\necho 'stub failure' >&2\nexit 1\n"

// WithFFmpegScript installs script as the configured FFmpeg binary.
func WithFFmpegScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FFmpeg.Binary = WriteStub(b.t, filepath.Join(b.baseDir, "bin"), "ffmpeg", script)
	}
}

// WithMissingFFmpeg points the configured FFmpeg binary at a path that does
// not exist. A configured binary is authoritative, so no other copy is used.
func WithMissingFFmpeg() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FFmpeg.Binary = filepath.Join(b.baseDir, "missing", "ffmpeg")
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and yt-dlp are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "yt-dlp"}
		}
		binDir := filepath.Join(b.baseDir, "path-bin")
		for _, name := range names {
			WriteStub(b.t, binDir, name, "#!/bin/sh\nexit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WriteStub writes an executable script named name into dir.
func WriteStub(t testing.TB, dir, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.FFmpeg.BundledDir)
}
