package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mpd2mp4/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckOutputTarget verifies that path can be written as a conversion
// output: its directory must be writable and path itself must not be a
// directory. An existing regular file passes; it will be replaced.
func CheckOutputTarget(path string) Result {
	const name = "Output"
	dir := filepath.Dir(path)
	result := CheckDirectoryAccess(name, dir)
	if !result.Passed {
		return result
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (write ok)", path)}
}

// RunAll executes the filesystem checks relevant to the given config.
// workDir is where outputs with relative names land.
func RunAll(cfg *config.Config, workDir string) []Result {
	var results []Result

	if strings.TrimSpace(workDir) != "" {
		results = append(results, CheckDirectoryAccess("Working directory", workDir))
	}
	if cfg == nil {
		return results
	}
	if dir := strings.TrimSpace(cfg.FFmpeg.BundledDir); dir != "" {
		results = append(results, checkBundledDir(dir))
	}
	if file := strings.TrimSpace(cfg.Logging.File); file != "" {
		results = append(results, CheckDirectoryAccess("Log directory", filepath.Dir(file)))
	}
	return results
}

func checkBundledDir(dir string) Result {
	const name = "Bundled binaries"
	info, err := os.Stat(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", dir)}
	}
	return Result{Name: name, Passed: true, Detail: dir}
}
