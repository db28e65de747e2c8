package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"mpd2mp4/internal/services"
	"mpd2mp4/internal/services/ffmpeg"
)

type stubExecutor struct {
	lines  []string
	err    error
	dir    string
	binary string
	args   []string
}

func (s *stubExecutor) Run(_ context.Context, dir, binary string, args []string, onLine func(string)) error {
	s.dir = dir
	s.binary = binary
	s.args = append([]string(nil), args...)
	for _, line := range s.lines {
		onLine(line)
	}
	return s.err
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ffmpeg.New("  "); !errors.Is(err, services.ErrExternalToolMissing) {
		t.Fatalf("expected ErrExternalToolMissing, got %v", err)
	}
}

func TestRemuxRunsFromManifestDirectory(t *testing.T) {
	stub := &stubExecutor{lines: []string{"Input #0, dash", "Output #0, mp4"}}
	var streamed []string
	client, err := ffmpeg.New("/opt/ffmpeg", ffmpeg.WithExecutor(stub), ffmpeg.WithOutput(func(line string) {
		streamed = append(streamed, line)
	}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	manifestDir := filepath.Join(t.TempDir(), "media")
	output := filepath.Join(t.TempDir(), "out.mp4")
	if err := client.Remux(context.Background(), filepath.Join(manifestDir, "stream.mpd"), output); err != nil {
		t.Fatalf("Remux returned error: %v", err)
	}

	if stub.dir != manifestDir {
		t.Fatalf("expected working dir %q, got %q", manifestDir, stub.dir)
	}
	if stub.binary != "/opt/ffmpeg" {
		t.Fatalf("unexpected binary %q", stub.binary)
	}
	want := ffmpeg.RemuxArgs("stream.mpd", output)
	if strings.Join(stub.args, " ") != strings.Join(want, " ") {
		t.Fatalf("args = %v, want %v", stub.args, want)
	}
	if len(streamed) != 2 {
		t.Fatalf("expected output lines to be streamed, got %v", streamed)
	}
}

func TestRemuxArgs(t *testing.T) {
	args := strings.Join(ffmpeg.RemuxArgs("a.mpd", "/out/b.mkv"), " ")
	want := "-hide_banner -nostdin -protocol_whitelist file,http,https,tcp,tls,crypto -i a.mpd -c copy -y /out/b.mkv"
	if args != want {
		t.Fatalf("RemuxArgs = %q, want %q", args, want)
	}
}

func TestRemuxFailureCarriesDiagnostics(t *testing.T) {
	lines := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		lines = append(lines, "frame line")
	}
	lines = append(lines, "chunk-1.m4s: No such file or directory")
	stub := &stubExecutor{lines: lines, err: errors.New("wait command: exit status 1")}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	err = client.Remux(context.Background(), "/media/stream.mpd", filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, services.ErrExternalToolFailure) {
		t.Fatalf("expected ErrExternalToolFailure, got %v", err)
	}
	diag := services.DiagnosticOutput(err)
	if !strings.HasSuffix(diag, "chunk-1.m4s: No such file or directory") {
		t.Fatalf("expected tail to end with last line, got %q", diag)
	}
	if got := strings.Count(diag, "\n") + 1; got != 20 {
		t.Fatalf("expected 20 tail lines, got %d", got)
	}
}

func TestRemuxCanceled(t *testing.T) {
	stub := &stubExecutor{err: errors.New("signal: killed")}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = client.Remux(ctx, "/media/stream.mpd", filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestRemuxWithScriptReportsReturnCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	body := "#!/bin/sh\necho \"cwd=$(pwd)\"\necho 'broken segment' >&2\nexit 3\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	var streamed []string
	client, err := ffmpeg.New(script, ffmpeg.WithOutput(func(line string) { streamed = append(streamed, line) }))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	err = client.Remux(context.Background(), filepath.Join(dir, "stream.mpd"), filepath.Join(dir, "out.mp4"))
	if err == nil || !strings.Contains(err.Error(), "return code 3") {
		t.Fatalf("expected return code in error, got %v", err)
	}
	if !strings.Contains(services.DiagnosticOutput(err), "broken segment") {
		t.Fatalf("expected stderr in diagnostics, got %q", services.DiagnosticOutput(err))
	}
	if len(streamed) != 2 {
		t.Fatalf("expected both output lines streamed, got %v", streamed)
	}
}

func TestRemuxWithScriptSucceeds(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	body := "#!/bin/sh\nfor last; do :; done\nprintf 'mp4' > \"$last\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	client, err := ffmpeg.New(script)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	output := filepath.Join(dir, "out.mp4")
	if err := client.Remux(context.Background(), filepath.Join(dir, "stream.mpd"), output); err != nil {
		t.Fatalf("Remux returned error: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil || string(data) != "mp4" {
		t.Fatalf("expected stub output file, got %q (err=%v)", data, err)
	}
}
