package convert

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"

	"mpd2mp4/internal/config"
	"mpd2mp4/internal/fileutil"
	"mpd2mp4/internal/logging"
	"mpd2mp4/internal/preflight"
	"mpd2mp4/internal/services"
)

// ResolveOutputName applies the output naming rules to raw user input: an
// empty name becomes the configured default, a name without a supported
// container extension gets the default container appended, and the result is
// made absolute. The second return value reports whether the default name
// was used.
func ResolveOutputName(raw string, cfg *config.Config) (string, bool, error) {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	name := strings.TrimSpace(raw)
	name = strings.Trim(name, `"'`)
	usedDefault := false
	if name == "" {
		name = cfg.Output.DefaultName
		usedDefault = true
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, string(filepath.Separator)) ||
		filepath.Base(name) == "." || filepath.Base(name) == ".." || name == "~" {
		return "", false, services.Wrap(services.ErrInvalidInput, "convert", "output name", fmt.Sprintf("Output name %q is a directory", raw), nil)
	}
	expanded, err := config.ExpandPath(name)
	if err != nil {
		return "", false, services.Wrap(services.ErrInvalidInput, "convert", "output name", "Could not resolve output path", err)
	}
	name = expanded
	if !config.IsSupportedContainer(filepath.Ext(name)) {
		name += cfg.ContainerExtension()
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false, services.Wrap(services.ErrInvalidInput, "convert", "output name", "Could not resolve output path", err)
	}
	return abs, usedDefault, nil
}

// Container returns the container name implied by the output path's
// extension, without the dot.
func Container(outputPath string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
}

// TempPath returns the hidden working file used while a tool writes output:
// .<name>.<run>.part<ext> next to the destination, so the final rename stays
// on one filesystem. The full destination name is kept so outputs that differ
// only in extension never share temp files.
func TempPath(outputPath, runID string) string {
	base := filepath.Base(outputPath)
	return filepath.Join(filepath.Dir(outputPath), fmt.Sprintf(".%s.%s.part%s", base, tempRunID(runID), filepath.Ext(base)))
}

func tempRunID(runID string) string {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	runID = strings.ReplaceAll(runID, ".", "-")
	if runID == "" {
		runID = "run"
	}
	return runID
}

// tempSuffix matches what follows the run id in a temp file name: the temp
// itself plus the intermediates yt-dlp derives from it (per-format
// .f<id>.<ext> files, .temp merge output, .part and .ytdl sidecars).
var tempSuffix = regexp.MustCompile(`^\.part(\.(?:f[\w-]+|temp))?(\.\w+)?(\.part|\.ytdl)?$`)

// tempRun reports the run id owning name when name is a temp file (or a
// tool intermediate of one) for an output called base.
func tempRun(name, base string) (string, bool) {
	prefix := "." + base + "."
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	rest := name[len(prefix):]
	dot := strings.IndexByte(rest, '.')
	if dot <= 0 || !tempSuffix.MatchString(rest[dot:]) {
		return "", false
	}
	return rest[:dot], true
}

// LockPath returns the advisory lock file guarding outputPath.
func LockPath(outputPath string) string {
	return outputPath + ".lock"
}

// outputGuard owns the destination for a single run.
type outputGuard struct {
	output string
	temp   string
	runID  string
	lock   *flock.Flock
}

func acquireOutput(outputPath, runID string, logger *slog.Logger) (*outputGuard, error) {
	if check := preflight.CheckOutputTarget(outputPath); !check.Passed {
		return nil, services.Wrap(services.ErrOutputWrite, "convert", "output", "Cannot write output: "+check.Detail, nil)
	}
	lock := flock.New(LockPath(outputPath))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrOutputWrite, "convert", "lock output", "Could not lock output", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrOutputWrite, "convert", "lock output",
			fmt.Sprintf("Another conversion is already writing %s", filepath.Base(outputPath)), nil)
	}
	guard := &outputGuard{
		output: outputPath,
		temp:   TempPath(outputPath, runID),
		runID:  tempRunID(runID),
		lock:   lock,
	}
	if err := fileutil.RemoveIfExists(guard.temp); err != nil {
		guard.release()
		return nil, services.Wrap(services.ErrOutputWrite, "convert", "output", "Could not clear stale temp file", err)
	}
	CleanStaleTemps(outputPath, logger)
	return guard, nil
}

// CleanStaleTemps removes temp files that earlier runs left next to
// outputPath. It must only be called while holding the output lock, since a
// live run's temp file looks the same as an abandoned one.
func CleanStaleTemps(outputPath string, logger *slog.Logger) []string {
	return removeTemps(outputPath, "", logger)
}

// removeTemps deletes temp files for outputPath. An empty runID matches
// every run.
func removeTemps(outputPath, runID string, logger *slog.Logger) []string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		owner, ok := tempRun(name, base)
		if !ok || (runID != "" && owner != runID) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			if logger != nil {
				logger.Warn("failed to remove stale temp file",
					logging.String("path", path),
					logging.Error(err),
				)
			}
			continue
		}
		removed = append(removed, path)
		if logger != nil {
			logger.Info("removed stale temp file", logging.String("path", path))
		}
	}
	return removed
}

// commit moves the finished temp file over the destination.
func (g *outputGuard) commit() error {
	info, err := os.Stat(g.temp)
	if err != nil {
		return services.Wrap(services.ErrExternalToolFailure, "convert", "commit", "Tool reported success but produced no output file", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrExternalToolFailure, "convert", "commit", "Tool output is a directory", nil)
	}
	if err := fileutil.ReplaceFile(g.temp, g.output); err != nil {
		return services.Wrap(services.ErrOutputWrite, "convert", "commit", "Could not move output into place", err)
	}
	return nil
}

// discard removes the temp file and every intermediate the tool derived
// from it.
func (g *outputGuard) discard() {
	_ = fileutil.RemoveIfExists(g.temp)
	removeTemps(g.output, g.runID, nil)
}

func (g *outputGuard) release() {
	if g.lock == nil {
		return
	}
	_ = g.lock.Unlock()
	_ = fileutil.RemoveIfExists(g.lock.Path())
}
