package progress_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"mpd2mp4/internal/progress"
)

func TestReporterLineModeEmitsOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	reporter := progress.NewReporter(&buf)

	reporter.OnEvent(progress.Event{Status: progress.StatusDownloading, Fraction: 0})
	reporter.OnEvent(progress.Event{Status: progress.StatusDownloading, Fraction: 0.452})
	reporter.OnEvent(progress.Event{Status: progress.StatusFinished, Fraction: 1})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []string{
		"[Downloading] Progress: 0.0%",
		"[Downloading] Progress: 45.2%",
		"[Finished] Download complete. Processing/Merging...",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestReporterInPlaceOverwritesDownloadingLine(t *testing.T) {
	var buf bytes.Buffer
	reporter := progress.NewReporter(&buf, progress.WithInPlace(true))

	reporter.OnEvent(progress.Event{Status: progress.StatusDownloading, Fraction: 0.5, Speed: "1.2 MB/s", ETA: "1m5s"})
	reporter.OnEvent(progress.Event{Status: progress.StatusDownloading, Fraction: 0.6})
	reporter.OnEvent(progress.Event{Status: progress.StatusError})

	out := buf.String()
	first := "\r[Downloading] Progress: 50.0% | Speed: 1.2 MB/s | ETA: 1m5s"
	if !strings.HasPrefix(out, first) {
		t.Fatalf("unexpected first segment: %q", out)
	}
	second := "\r[Downloading] Progress: 60.0%"
	idx := strings.Index(out, second)
	if idx < 0 {
		t.Fatalf("expected overwritten second line: %q", out)
	}
	rest := out[idx+len(second):]
	padding := len(first) - len(second)
	if !strings.HasPrefix(rest, strings.Repeat(" ", padding)+"\n[Error] Download failed\n") {
		t.Fatalf("expected padding then error line, got %q", rest)
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected exactly two newlines, got %q", out)
	}
}

func TestReporterCloseTerminatesOpenLine(t *testing.T) {
	var buf bytes.Buffer
	reporter := progress.NewReporter(&buf, progress.WithInPlace(true))
	reporter.Close()
	if buf.Len() != 0 {
		t.Fatalf("expected no output when no line is open, got %q", buf.String())
	}
	reporter.OnEvent(progress.Event{Status: progress.StatusDownloading, Fraction: 0.1})
	reporter.Close()
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("expected trailing newline after Close, got %q", buf.String())
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name  string
		event progress.Event
		want  string
	}{
		{"speed only", progress.Event{Status: progress.StatusDownloading, Fraction: 0.25, Speed: "900 kB/s"}, "[Downloading] Progress: 25.0% | Speed: 900 kB/s"},
		{"eta only", progress.Event{Status: progress.StatusDownloading, Fraction: 1.2, ETA: "3s"}, "[Downloading] Progress: 100.0% | ETA: 3s"},
		{"negative clamps", progress.Event{Status: progress.StatusDownloading, Fraction: -0.1}, "[Downloading] Progress: 0.0%"},
		{"finished", progress.Event{Status: progress.StatusFinished}, "[Finished] Download complete. Processing/Merging..."},
		{"error", progress.Event{Status: progress.StatusError}, "[Error] Download failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progress.FormatEvent(tt.event); got != tt.want {
				t.Fatalf("FormatEvent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromUpdateMapsStatuses(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		update ytdlp.ProgressUpdate
		want   progress.Status
		ok     bool
	}{
		{"finished", ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusFinished}, progress.StatusFinished, true},
		{"error", ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusError}, progress.StatusError, true},
		{"post processing", ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusPostProcessing}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := progress.FromUpdate(tt.update, now)
			if ok != tt.ok || event.Status != tt.want {
				t.Fatalf("FromUpdate = (%+v, %v), want (%s, %v)", event, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFromUpdateComputesFractionAndSpeed(t *testing.T) {
	now := time.Now()
	update := ytdlp.ProgressUpdate{
		Status:          ytdlp.ProgressStatusDownloading,
		TotalBytes:      4_000_000,
		DownloadedBytes: 1_000_000,
		Started:         now.Add(-2 * time.Second),
	}
	event, ok := progress.FromUpdate(update, now)
	if !ok || event.Status != progress.StatusDownloading {
		t.Fatalf("unexpected event: %+v (ok=%v)", event, ok)
	}
	if event.Fraction != 0.25 {
		t.Fatalf("fraction = %v, want 0.25", event.Fraction)
	}
	if event.Speed != "500 kB/s" {
		t.Fatalf("speed = %q, want 500 kB/s", event.Speed)
	}
}

func TestHookForwardsToSink(t *testing.T) {
	var got []progress.Event
	hook := progress.Hook(progress.SinkFunc(func(e progress.Event) { got = append(got, e) }))
	hook(ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusPostProcessing})
	hook(ytdlp.ProgressUpdate{Status: ytdlp.ProgressStatusFinished})
	if len(got) != 1 || got[0].Status != progress.StatusFinished {
		t.Fatalf("expected a single finished event, got %+v", got)
	}
}
