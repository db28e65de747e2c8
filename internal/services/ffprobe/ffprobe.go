package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mpd2mp4/internal/services"
)

// Result is the subset of ffprobe's JSON report the converter uses.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one elementary stream in the container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format carries container-level metadata.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// Runner executes ffprobe and returns its stdout.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Client probes media files.
type Client struct {
	binary string
	run    Runner
}

// New builds a client for binary. A nil runner executes the binary directly.
func New(binary string, run Runner) *Client {
	if run == nil {
		run = execRunner
	}
	return &Client{binary: binary, run: run}
}

// Candidate returns where the ffprobe matching ffmpegPath would live,
// whether or not it exists. Only the sibling is considered so the probe
// matches the FFmpeg build that produced the file.
func Candidate(ffmpegPath string) string {
	ffmpegPath = strings.TrimSpace(ffmpegPath)
	if ffmpegPath == "" {
		return ""
	}
	name := "ffprobe"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(ffmpegPath), name)
}

// Locate returns the ffprobe that sits next to ffmpegPath, or "" when there
// is none.
func Locate(ffmpegPath string) string {
	candidate := Candidate(ffmpegPath)
	if candidate == "" {
		return ""
	}
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return ""
	}
	return candidate
}

// Probe inspects path.
func (c *Client) Probe(ctx context.Context, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, services.Wrap(services.ErrInvalidInput, "ffprobe", "probe", "path required", nil)
	}
	output, err := c.run(ctx, c.binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalToolFailure, "ffprobe", "probe", "inspect output", err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, services.Wrap(services.ErrExternalToolFailure, "ffprobe", "probe", "parse report", err)
	}
	return result, nil
}

func execRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return output, nil
}

// CountStreams returns how many streams have the given codec type.
func (r Result) CountStreams(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// Duration returns the container duration, or 0 when ffprobe did not report one.
func (r Result) Duration() time.Duration {
	seconds := parseFloat(r.Format.Duration)
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// SizeBytes returns the reported container size, or 0 when unavailable.
func (r Result) SizeBytes() uint64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return uint64(size)
}

// Summary renders a one-line description such as
// "1 video, 2 audio, 1h2m3s, 12 MB".
func (r Result) Summary() string {
	parts := []string{
		fmt.Sprintf("%d video", r.CountStreams("video")),
		fmt.Sprintf("%d audio", r.CountStreams("audio")),
	}
	if subs := r.CountStreams("subtitle"); subs > 0 {
		parts = append(parts, fmt.Sprintf("%d subtitle", subs))
	}
	if d := r.Duration(); d > 0 {
		parts = append(parts, d.Round(time.Second).String())
	}
	if size := r.SizeBytes(); size > 0 {
		parts = append(parts, humanize.Bytes(size))
	}
	return strings.Join(parts, ", ")
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}
