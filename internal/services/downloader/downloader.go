package downloader

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"mpd2mp4/internal/logging"
	"mpd2mp4/internal/progress"
	"mpd2mp4/internal/services"
)

// FormatFallback selects a single pre-muxed representation. It is used when
// no FFmpeg is available to merge separate video and audio streams.
const FormatFallback = "best"

const defaultProgressInterval = 500 * time.Millisecond

// Options mirrors the yt-dlp options the converter sets.
type Options struct {
	Executable        string
	Format            string
	MergeOutputFormat string
	OutputTemplate    string
	FFmpegLocation    string
	Referer           string
	EnableFileURLs    bool
	ForceOverwrites   bool
	ProgressInterval  time.Duration
	Sink              progress.Sink
}

// Validate reports missing required options.
func (o Options) Validate() error {
	if strings.TrimSpace(o.OutputTemplate) == "" {
		return services.Wrap(services.ErrInvalidInput, "downloader", "validate", "output template required", nil)
	}
	if strings.TrimSpace(o.Format) == "" {
		return services.Wrap(services.ErrInvalidInput, "downloader", "validate", "format selector required", nil)
	}
	return nil
}

// Client runs yt-dlp downloads.
type Client struct {
	logger *slog.Logger
}

// New constructs a downloader client.
func New(logger *slog.Logger) *Client {
	return &Client{logger: logging.NewComponentLogger(logger, "downloader")}
}

// Download fetches url according to opts. It blocks until yt-dlp exits.
func (c *Client) Download(ctx context.Context, url string, opts Options) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return services.Wrap(services.ErrInvalidInput, "downloader", "download", "url required", nil)
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	cmd := buildCommand(opts)
	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("starting yt-dlp download",
		logging.String("url", url),
		logging.String("format", opts.Format),
		logging.String("output", opts.OutputTemplate),
		logging.String("ffmpeg", opts.FFmpegLocation),
	)

	result, err := cmd.Run(ctx, url)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return services.Wrap(services.ErrCanceled, "downloader", "download", "interrupted", ctxErr)
	}
	var stderr string
	if result != nil {
		stderr = result.Stderr
		logger.Error("yt-dlp download failed",
			logging.Int("exit_code", result.ExitCode),
			logging.Error(err),
		)
	} else {
		logger.Error("yt-dlp download failed", logging.Error(err))
	}
	return services.WithDiagnostic(
		services.Wrap(services.ErrExternalToolFailure, "downloader", "download", "yt-dlp download failed", err),
		tailLines(stderr, 20),
	)
}

func buildCommand(opts Options) *ytdlp.Command {
	cmd := ytdlp.New().
		Format(opts.Format).
		Output(opts.OutputTemplate)
	if exe := strings.TrimSpace(opts.Executable); exe != "" {
		cmd.SetExecutable(exe)
	}
	if merge := strings.TrimSpace(opts.MergeOutputFormat); merge != "" {
		cmd.MergeOutputFormat(merge)
	}
	if ffmpeg := strings.TrimSpace(opts.FFmpegLocation); ffmpeg != "" {
		cmd.FFmpegLocation(ffmpeg)
	}
	if referer := strings.TrimSpace(opts.Referer); referer != "" {
		cmd.Referer(referer)
	}
	if opts.EnableFileURLs {
		cmd.EnableFileURLs()
	}
	if opts.ForceOverwrites {
		cmd.ForceOverwrites()
	}
	if opts.Sink != nil {
		interval := opts.ProgressInterval
		if interval <= 0 {
			interval = defaultProgressInterval
		}
		cmd.ProgressFunc(interval, progress.Hook(opts.Sink))
	}
	return cmd
}

func tailLines(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
