package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mpd2mp4/internal/logging"
)

// Status is the lifecycle state carried by a progress event.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
	StatusError       Status = "error"
)

// Event is a single progress notification. Fraction is in [0,1]; Speed and
// ETA are optional display strings.
type Event struct {
	Status   Status
	Fraction float64
	Speed    string
	ETA      string
}

// Sink receives progress events. Implementations must not block.
type Sink interface {
	OnEvent(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

const (
	finishedMessage = "Download complete. Processing/Merging..."
	errorMessage    = "Download failed"
)

var titleCaser = cases.Title(language.English)

// Label returns the bracketed tag for a status, e.g. "[Downloading]".
func Label(status Status) string {
	return "[" + titleCaser.String(string(status)) + "]"
}

// FormatEvent renders the status line for an event without any line control.
func FormatEvent(e Event) string {
	switch e.Status {
	case StatusFinished:
		return Label(StatusFinished) + " " + finishedMessage
	case StatusError:
		return Label(StatusError) + " " + errorMessage
	}
	var b strings.Builder
	b.WriteString(Label(StatusDownloading))
	fmt.Fprintf(&b, " Progress: %.1f%%", clamp(e.Fraction)*100)
	if speed := strings.TrimSpace(e.Speed); speed != "" {
		b.WriteString(" | Speed: ")
		b.WriteString(speed)
	}
	if eta := strings.TrimSpace(e.ETA); eta != "" {
		b.WriteString(" | ETA: ")
		b.WriteString(eta)
	}
	return b.String()
}

func clamp(fraction float64) float64 {
	switch {
	case fraction < 0:
		return 0
	case fraction > 1:
		return 1
	default:
		return fraction
	}
}

// Reporter writes progress events as terminal status lines. On a terminal
// consecutive downloading events overwrite one line; elsewhere every event
// gets its own line. Write errors are ignored.
type Reporter struct {
	mu       sync.Mutex
	w        io.Writer
	inplace  bool
	lineOpen bool
	lastLen  int
	logger   *slog.Logger
	sampler  *logging.ProgressSampler
}

// ReporterOption customizes a Reporter.
type ReporterOption func(*Reporter)

// WithInPlace forces or disables carriage-return line overwriting.
func WithInPlace(enabled bool) ReporterOption {
	return func(r *Reporter) { r.inplace = enabled }
}

// WithLogger mirrors sampled progress events into logger at debug level.
func WithLogger(logger *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logging.NewComponentLogger(logger, "progress")
		}
	}
}

// NewReporter constructs a Reporter writing to w.
func NewReporter(w io.Writer, opts ...ReporterOption) *Reporter {
	if w == nil {
		w = io.Discard
	}
	r := &Reporter{
		w:       w,
		inplace: IsTerminal(w),
		logger:  logging.NewNop(),
		sampler: logging.NewProgressSampler(10),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnEvent implements Sink.
func (r *Reporter) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log(e)
	line := FormatEvent(e)
	if e.Status == StatusDownloading {
		if !r.inplace {
			_, _ = io.WriteString(r.w, line+"\n")
			return
		}
		padding := ""
		if pad := r.lastLen - len(line); pad > 0 {
			padding = strings.Repeat(" ", pad)
		}
		_, _ = io.WriteString(r.w, "\r"+line+padding)
		r.lineOpen = true
		r.lastLen = len(line)
		return
	}

	if r.lineOpen {
		_, _ = io.WriteString(r.w, "\n")
	}
	_, _ = io.WriteString(r.w, line+"\n")
	r.lineOpen = false
	r.lastLen = 0
}

// Close terminates an open in-place line so later output starts cleanly.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lineOpen {
		_, _ = io.WriteString(r.w, "\n")
		r.lineOpen = false
		r.lastLen = 0
	}
}

func (r *Reporter) log(e Event) {
	percent := -1.0
	if e.Status == StatusDownloading {
		percent = clamp(e.Fraction) * 100
	}
	if !r.sampler.ShouldLog(percent, string(e.Status)) {
		return
	}
	r.logger.Debug("download progress",
		logging.String("status", string(e.Status)),
		logging.Float64("percent", percent),
		logging.String("speed", e.Speed),
		logging.String("eta", e.ETA),
	)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w any) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
