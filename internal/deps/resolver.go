package deps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"mpd2mp4/internal/config"
	"mpd2mp4/internal/logging"
)

const (
	ffmpegName     = "ffmpeg"
	downloaderName = "yt-dlp"
)

// Installer fetches a managed copy of a tool and returns its executable path.
type Installer func(ctx context.Context) (string, error)

// Resolver locates the FFmpeg and yt-dlp binaries.
//
// Lookup order for each tool: the configured path (authoritative when set),
// a bundled copy next to the running executable or in its bin/ directory,
// PATH, and finally a managed download when the config allows it.
type Resolver struct {
	cfg               *config.Config
	logger            *slog.Logger
	executable        func() (string, error)
	installFFmpeg     Installer
	installDownloader Installer
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithExecutablePath overrides how the running executable is located.
func WithExecutablePath(fn func() (string, error)) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.executable = fn
		}
	}
}

// WithInstallers overrides the managed download hooks.
func WithInstallers(ffmpeg, downloader Installer) ResolverOption {
	return func(r *Resolver) {
		if ffmpeg != nil {
			r.installFFmpeg = ffmpeg
		}
		if downloader != nil {
			r.installDownloader = downloader
		}
	}
}

// WithoutInstall disables managed downloads regardless of configuration.
func WithoutInstall() ResolverOption {
	return func(r *Resolver) {
		r.installFFmpeg = nil
		r.installDownloader = nil
	}
}

// NewResolver constructs a resolver for the supplied configuration.
func NewResolver(cfg *config.Config, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	r := &Resolver{
		cfg:               cfg,
		logger:            logging.NewComponentLogger(logger, "deps"),
		executable:        os.Executable,
		installFFmpeg:     installManagedFFmpeg,
		installDownloader: installManagedDownloader,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve locates both tools. Missing tools are reported as unavailable
// statuses rather than errors; callers decide whether that is fatal.
func (r *Resolver) Resolve(ctx context.Context) Binaries {
	return Binaries{
		FFmpeg:     r.ResolveFFmpeg(ctx),
		Downloader: r.ResolveDownloader(ctx),
	}
}

// ResolveFFmpeg locates the FFmpeg binary.
func (r *Resolver) ResolveFFmpeg(ctx context.Context) Status {
	status := Status{
		Name:        "FFmpeg",
		Description: "Remuxes local manifests and merges downloaded streams",
	}
	return r.resolve(ctx, status, ffmpegName, r.cfg.FFmpeg.Binary, r.cfg.FFmpeg.AllowDownload, r.installFFmpeg)
}

// ResolveDownloader locates the yt-dlp binary.
func (r *Resolver) ResolveDownloader(ctx context.Context) Status {
	status := Status{
		Name:        "yt-dlp",
		Description: "Downloads remote DASH manifests",
	}
	return r.resolve(ctx, status, downloaderName, r.cfg.Downloader.Binary, r.cfg.Downloader.AutoInstall, r.installDownloader)
}

func (r *Resolver) resolve(ctx context.Context, status Status, name, configured string, allowInstall bool, install Installer) Status {
	if configured = strings.TrimSpace(configured); configured != "" {
		status.Command = configured
		resolved, err := exec.LookPath(configured)
		if err != nil {
			status.Detail = fmt.Sprintf("configured binary %q not found", configured)
			r.logger.Warn("configured binary missing",
				logging.String("binary", name),
				logging.String("path", configured),
			)
			return status
		}
		return r.found(status, resolved, OriginConfigured)
	}

	if candidate, ok := r.bundledCandidate(name); ok {
		return r.found(status, candidate, OriginBundled)
	}

	if resolved, err := exec.LookPath(name); err == nil {
		return r.found(status, resolved, OriginSystem)
	}

	status.Command = name
	if allowInstall && install != nil {
		path, err := install(ctx)
		if err == nil && strings.TrimSpace(path) != "" {
			return r.found(status, path, OriginDownloaded)
		}
		r.logger.Warn("managed install failed",
			logging.String("binary", name),
			logging.Error(err),
		)
		status.Detail = fmt.Sprintf("binary %q not found and managed install failed", name)
		return status
	}
	status.Detail = fmt.Sprintf("binary %q not found", name)
	return status
}

func (r *Resolver) found(status Status, path string, origin Origin) Status {
	status.Command = path
	status.Available = true
	status.Origin = origin
	status.Detail = ""
	r.logger.Debug("binary resolved",
		logging.String("binary", status.Name),
		logging.String("path", path),
		logging.String("origin", string(origin)),
	)
	return status
}

func (r *Resolver) bundledCandidate(name string) (string, bool) {
	for _, dir := range r.bundledDirs() {
		candidate := filepath.Join(dir, executableName(name))
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate, true
		}
	}
	return "", false
}

// bundledDirs lists where bundled copies of any tool are looked up.
// [ffmpeg] bundled_dir applies to yt-dlp as well.
func (r *Resolver) bundledDirs() []string {
	if dir := strings.TrimSpace(r.cfg.FFmpeg.BundledDir); dir != "" {
		return []string{dir}
	}
	exe, err := r.executable()
	if err != nil || exe == "" {
		return nil
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	dir := filepath.Dir(exe)
	return []string{dir, filepath.Join(dir, "bin")}
}

func installManagedFFmpeg(ctx context.Context) (string, error) {
	resolved, err := ytdlp.InstallFFmpeg(ctx, nil)
	if err != nil {
		return "", err
	}
	return resolved.Executable, nil
}

func installManagedDownloader(ctx context.Context) (string, error) {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", err
	}
	return resolved.Executable, nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
