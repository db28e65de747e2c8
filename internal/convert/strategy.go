package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mpd2mp4/internal/logging"
	"mpd2mp4/internal/manifest"
	"mpd2mp4/internal/services"
	"mpd2mp4/internal/services/downloader"
	"mpd2mp4/internal/services/ffmpeg"
	"mpd2mp4/internal/source"
)

const maxListedEntries = 20

func (d *Dispatcher) plan(ctx context.Context, src source.Source) (plan, error) {
	logger := logging.WithContext(ctx, d.logger)
	if src.IsRemote() {
		d.emit(StatusInfo, "Processing URL: "+truncate(src.URL, 100))
		return plan{strategy: StrategyRemote, url: src.URL}, nil
	}

	d.emit(StatusInfo, "Detected local file: "+src.Path)
	// Every local strategy needs FFmpeg, including the yt-dlp redirect.
	if d.binaries.FFmpegPath() == "" {
		return plan{}, services.Wrap(services.ErrExternalToolMissing, "convert", "plan",
			"FFmpeg is required to process local MPD files", nil)
	}
	report, err := manifest.Inspect(src.Path)
	if err != nil {
		return plan{}, err
	}
	logger.Debug("manifest inspected",
		logging.String("path", report.Path),
		logging.Int64("size_bytes", report.Size),
		logging.Int("remote_refs", report.RemoteRefs),
		logging.Bool("partial", report.Partial),
	)
	if report.Partial {
		d.emit(StatusWarning, "Manifest is not well-formed XML; inspected what could be read")
	}

	if report.HasRemoteRefs {
		if report.RemoteURL == "" {
			return plan{}, services.Wrap(services.ErrInvalidInput, "convert", "plan",
				"Manifest references remote media but no usable URL was found; provide the original manifest URL instead", nil)
		}
		d.emit(StatusInfo, "Manifest references remote media; switching to yt-dlp")
		d.emit(StatusInfo, fmt.Sprintf("Found %s in manifest: %s", report.RemoteKind, report.RemoteURL))
		logger.Info("local manifest redirected to downloader",
			logging.String("decision_type", "strategy"),
			logging.String("remote_kind", report.RemoteKind),
			logging.String("remote_url", report.RemoteURL),
		)
		return plan{strategy: StrategyLocalRemote, url: report.RemoteURL, manifest: src.Path}, nil
	}

	return plan{strategy: StrategyLocal, manifest: src.Path}, nil
}

// runRemote downloads url into temp. The bool result reports whether the
// format selector was degraded because FFmpeg is unavailable.
func (d *Dispatcher) runRemote(ctx context.Context, url, temp string, req Request) (bool, error) {
	exe := d.binaries.DownloaderPath()
	if exe == "" {
		detail := strings.TrimSpace(d.binaries.Downloader.Detail)
		message := "yt-dlp is required to download remote manifests"
		if detail != "" {
			message += " (" + detail + ")"
		}
		return false, services.Wrap(services.ErrExternalToolMissing, "convert", "download", message, nil)
	}

	opts := downloader.Options{
		Executable:       exe,
		Format:           d.cfg.Downloader.Format,
		OutputTemplate:   escapeTemplate(temp),
		Referer:          req.Referer,
		ForceOverwrites:  true,
		ProgressInterval: time.Duration(d.cfg.Downloader.ProgressIntervalMS) * time.Millisecond,
		Sink:             d.sink,
	}
	fallback := false
	if ffmpegPath := d.binaries.FFmpegPath(); ffmpegPath != "" {
		opts.FFmpegLocation = ffmpegPath
		opts.MergeOutputFormat = Container(req.OutputPath)
	} else {
		fallback = true
		opts.Format = downloader.FormatFallback
		d.emit(StatusWarning, "FFmpeg is not detected; merging video and audio streams is not possible. Downloading the best single stream instead.")
	}

	logging.WithContext(ctx, d.logger).Debug("downloader options",
		logging.String("format", opts.Format),
		logging.String("merge_format", opts.MergeOutputFormat),
		logging.Bool("format_fallback", fallback),
	)
	return fallback, d.downloader.Download(ctx, url, opts)
}

func (d *Dispatcher) runLocal(ctx context.Context, manifestPath, temp string) error {
	remuxer := d.remuxer
	if remuxer == nil {
		client, err := ffmpeg.New(d.binaries.FFmpegPath(),
			ffmpeg.WithLogger(d.baseLogger),
			ffmpeg.WithOutput(d.toolOutput),
		)
		if err != nil {
			return err
		}
		remuxer = client
	}

	d.emit(StatusInfo, "Using FFmpeg to process local MPD file...")
	d.emit(StatusInfo, "Running FFmpeg from directory: "+filepath.Dir(manifestPath))
	d.logDirectoryListing(ctx, filepath.Dir(manifestPath))

	d.writeToolLine("--- FFmpeg Output ---")
	err := remuxer.Remux(ctx, manifestPath, temp)
	d.writeToolLine("--- End FFmpeg Output ---")
	return err
}

func (d *Dispatcher) writeToolLine(line string) {
	if d.toolOutput != nil {
		d.toolOutput(line)
	}
}

// logDirectoryListing records what sits next to the manifest, which is
// usually the first thing to check when segments fail to resolve.
func (d *Dispatcher) logDirectoryListing(ctx context.Context, dir string) {
	logger := logging.WithContext(ctx, d.logger)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debug("manifest directory unreadable", logging.String("dir", dir), logging.Error(err))
		return
	}
	names := make([]string, 0, maxListedEntries)
	for i, entry := range entries {
		if i == maxListedEntries {
			break
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	logger.Debug("manifest directory contents",
		logging.String("dir", dir),
		logging.Int("entries", len(entries)),
		logging.String("first", strings.Join(names, ", ")),
	)
}

// escapeTemplate protects literal percent signs from yt-dlp's output
// template expansion.
func escapeTemplate(path string) string {
	return strings.ReplaceAll(path, "%", "%%")
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
