package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Origin records where a resolved binary came from.
type Origin string

const (
	OriginConfigured Origin = "configured"
	OriginBundled    Origin = "bundled"
	OriginSystem     Origin = "system"
	OriginDownloaded Origin = "downloaded"
)

// Requirement defines an external dependency mpd2mp4 relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Origin      Origin
	Detail      string
}

// Binaries is the set of external tools resolved once per invocation.
type Binaries struct {
	FFmpeg     Status
	Downloader Status
}

// FFmpegPath returns the resolved FFmpeg path or "" when unavailable.
func (b Binaries) FFmpegPath() string {
	if !b.FFmpeg.Available {
		return ""
	}
	return b.FFmpeg.Command
}

// DownloaderPath returns the resolved yt-dlp path or "" when unavailable.
func (b Binaries) DownloaderPath() string {
	if !b.Downloader.Available {
		return ""
	}
	return b.Downloader.Command
}

// CheckBinaries evaluates the provided requirements against PATH and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		status.Origin = OriginSystem
		results = append(results, status)
	}
	return results
}
