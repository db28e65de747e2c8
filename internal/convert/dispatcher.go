package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mpd2mp4/internal/config"
	"mpd2mp4/internal/deps"
	"mpd2mp4/internal/logging"
	"mpd2mp4/internal/notifications"
	"mpd2mp4/internal/progress"
	"mpd2mp4/internal/services"
	"mpd2mp4/internal/services/downloader"
	"mpd2mp4/internal/services/ffprobe"
	"mpd2mp4/internal/source"
)

// Downloader fetches a remote manifest into a single file.
type Downloader interface {
	Download(ctx context.Context, url string, opts downloader.Options) error
}

// Remuxer stream-copies a local manifest into a container file.
type Remuxer interface {
	Remux(ctx context.Context, manifestPath, outputPath string) error
}

// Prober inspects a finished output file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// Strategy names the path a conversion took.
type Strategy string

const (
	// StrategyRemote downloads a remote manifest with yt-dlp.
	StrategyRemote Strategy = "remote"
	// StrategyLocal remuxes a local manifest with FFmpeg.
	StrategyLocal Strategy = "local"
	// StrategyLocalRemote downloads with yt-dlp using a URL found inside a
	// local manifest.
	StrategyLocalRemote Strategy = "local-remote"
)

// StatusLevel classifies user-facing status messages.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusWarning
)

// StatusFunc receives user-facing status messages emitted during a run.
type StatusFunc func(level StatusLevel, message string)

// Request is a single conversion.
type Request struct {
	Source     source.Source
	OutputPath string
	// Referer is sent with yt-dlp requests when set.
	Referer string
}

// Result describes a completed (or attempted) conversion.
type Result struct {
	RunID          string
	OutputPath     string
	Strategy       Strategy
	RemoteURL      string
	FormatFallback bool
	Duration       time.Duration
	// Media is set when the output could be probed after commit.
	Media *ffprobe.Result
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDownloader overrides the yt-dlp client.
func WithDownloader(dl Downloader) Option {
	return func(d *Dispatcher) {
		if dl != nil {
			d.downloader = dl
		}
	}
}

// WithRemuxer overrides the FFmpeg client used for local manifests.
func WithRemuxer(r Remuxer) Option {
	return func(d *Dispatcher) {
		d.remuxer = r
	}
}

// WithProber overrides output probing. A nil prober disables it.
func WithProber(p Prober) Option {
	return func(d *Dispatcher) {
		d.prober = p
		d.proberSet = true
	}
}

// WithProgressSink routes download progress to sink.
func WithProgressSink(sink progress.Sink) Option {
	return func(d *Dispatcher) {
		if sink != nil {
			d.sink = sink
		}
	}
}

// WithNotifier sets the service told about finished and failed runs.
func WithNotifier(svc notifications.Service) Option {
	return func(d *Dispatcher) {
		if svc != nil {
			d.notifier = svc
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logging.NewComponentLogger(logger, "convert")
		d.baseLogger = logger
	}
}

// WithStatus receives [Info] and [Warning] style messages.
func WithStatus(fn StatusFunc) Option {
	return func(d *Dispatcher) {
		d.status = fn
	}
}

// WithToolOutput receives FFmpeg output lines as they are produced.
func WithToolOutput(fn func(string)) Option {
	return func(d *Dispatcher) {
		d.toolOutput = fn
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(fn func() string) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.newRunID = fn
		}
	}
}

// Dispatcher routes conversion requests to yt-dlp or FFmpeg.
type Dispatcher struct {
	cfg        *config.Config
	binaries   deps.Binaries
	downloader Downloader
	remuxer    Remuxer
	sink       progress.Sink
	notifier   notifications.Service
	logger     *slog.Logger
	baseLogger *slog.Logger
	status     StatusFunc
	toolOutput func(string)
	newRunID   func() string
	prober     Prober
	proberSet  bool
}

// NewDispatcher builds a dispatcher for the resolved binaries.
func NewDispatcher(cfg *config.Config, binaries deps.Binaries, opts ...Option) *Dispatcher {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	d := &Dispatcher{
		cfg:        cfg,
		binaries:   binaries,
		sink:       progress.Discard,
		notifier:   notifications.NewService(nil),
		logger:     logging.NewComponentLogger(nil, "convert"),
		baseLogger: logging.NewNop(),
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.downloader == nil {
		d.downloader = downloader.New(d.baseLogger)
	}
	if !d.proberSet {
		if path := ffprobe.Locate(binaries.FFmpegPath()); path != "" {
			d.prober = ffprobe.New(path, nil)
		}
	}
	return d
}

type plan struct {
	strategy Strategy
	url      string
	manifest string
}

// Convert runs one request to completion. On failure no file is left at the
// output path beyond what was there before.
func (d *Dispatcher) Convert(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	runID := d.newRunID()
	result := Result{RunID: runID, OutputPath: req.OutputPath}
	ctx = services.WithRequestID(ctx, runID)

	if err := validateRequest(req); err != nil {
		return result, err
	}

	p, err := d.plan(ctx, req.Source)
	if err != nil {
		d.notifyFailure(ctx, req, err)
		return result, err
	}
	result.Strategy = p.strategy
	result.RemoteURL = p.url
	ctx = services.WithStrategy(ctx, string(p.strategy))
	logger := logging.WithContext(ctx, d.logger)

	guard, err := acquireOutput(req.OutputPath, runID, logger)
	if err != nil {
		d.notifyFailure(ctx, req, err)
		return result, err
	}
	defer guard.release()

	logger.Info("conversion started",
		logging.String("source", req.Source.Location()),
		logging.String("output", req.OutputPath),
		logging.String("temp", guard.temp),
	)
	d.emit(StatusInfo, fmt.Sprintf("Starting download for: %s...", filepath.Base(req.OutputPath)))

	switch p.strategy {
	case StrategyLocal:
		err = d.runLocal(ctx, p.manifest, guard.temp)
	default:
		result.FormatFallback, err = d.runRemote(ctx, p.url, guard.temp, req)
	}
	if err == nil {
		err = guard.commit()
	}
	result.Duration = time.Since(start)
	if err != nil {
		guard.discard()
		logger.Error("conversion failed", logging.Error(err), logging.Duration("elapsed", result.Duration))
		d.notifyFailure(ctx, req, err)
		return result, err
	}

	logger.Info("conversion completed",
		logging.String("output", req.OutputPath),
		logging.Duration("elapsed", result.Duration),
	)
	result.Media = d.probe(ctx, req.OutputPath)
	if notifyErr := d.notifier.NotifyConversionCompleted(ctx, req.OutputPath, string(p.strategy), result.Duration); notifyErr != nil {
		logger.Warn("completion notification failed", logging.Error(notifyErr))
	}
	return result, nil
}

func validateRequest(req Request) error {
	switch req.Source.Kind {
	case source.KindRemote:
		if strings.TrimSpace(req.Source.URL) == "" {
			return services.Wrap(services.ErrInvalidInput, "convert", "validate", "Source URL cannot be empty", nil)
		}
	case source.KindLocal:
		if strings.TrimSpace(req.Source.Path) == "" {
			return services.Wrap(services.ErrInvalidInput, "convert", "validate", "Source path cannot be empty", nil)
		}
	default:
		return services.Wrap(services.ErrInvalidInput, "convert", "validate", "Source is not classified", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrInvalidInput, "convert", "validate", "Output path cannot be empty", nil)
	}
	if !config.IsSupportedContainer(filepath.Ext(req.OutputPath)) {
		return services.Wrap(services.ErrInvalidInput, "convert", "validate",
			fmt.Sprintf("Output %q must end in one of .%s", filepath.Base(req.OutputPath), strings.Join(config.SupportedContainers, ", .")), nil)
	}
	return nil
}

func (d *Dispatcher) emit(level StatusLevel, message string) {
	if d.status != nil {
		d.status(level, message)
	}
}

// probe describes the committed output. Probe failures never fail the run.
func (d *Dispatcher) probe(ctx context.Context, path string) *ffprobe.Result {
	if d.prober == nil {
		return nil
	}
	info, err := d.prober.Probe(ctx, path)
	if err != nil {
		logging.WithContext(ctx, d.logger).Debug("output probe failed", logging.Error(err))
		return nil
	}
	d.emit(StatusInfo, "Output contains "+info.Summary())
	return &info
}

func (d *Dispatcher) notifyFailure(ctx context.Context, req Request, err error) {
	if errors.Is(err, services.ErrCanceled) {
		return
	}
	if notifyErr := d.notifier.NotifyConversionFailed(ctx, req.Source.Location(), err); notifyErr != nil {
		logging.WithContext(ctx, d.logger).Warn("failure notification failed", logging.Error(notifyErr))
	}
}
