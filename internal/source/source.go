package source

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"mpd2mp4/internal/config"
	"mpd2mp4/internal/services"
)

// Kind distinguishes remote manifests from local files.
type Kind int

const (
	KindRemote Kind = iota + 1
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Source is a classified conversion input. URL is set for remote sources and
// Path (absolute) for local ones.
type Source struct {
	Kind Kind
	URL  string
	Path string
}

// IsRemote reports whether the source is fetched over http(s).
func (s Source) IsRemote() bool { return s.Kind == KindRemote }

// Location returns the URL or path, whichever applies.
func (s Source) Location() string {
	if s.Kind == KindRemote {
		return s.URL
	}
	return s.Path
}

// Dir returns the directory containing a local manifest.
func (s Source) Dir() string {
	if s.Kind != KindLocal {
		return ""
	}
	return filepath.Dir(s.Path)
}

// Classify turns raw user input into a Source.
func Classify(raw string) (Source, error) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return Source{}, services.Wrap(services.ErrInvalidInput, "source", "classify", "Input cannot be empty", nil)
	}

	lower := strings.ToLower(cleaned)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Source{Kind: KindRemote, URL: cleaned}, nil
	case strings.HasPrefix(lower, "file://"):
		path, err := pathFromFileURI(cleaned)
		if err != nil {
			return Source{}, services.Wrap(services.ErrInvalidInput, "source", "classify", "Invalid file URI", err)
		}
		return classifyLocal(path)
	default:
		return classifyLocal(cleaned)
	}
}

// Clean trims whitespace and any quote characters at either end, as left
// behind when a path is pasted from a file manager. Quotes need not be
// paired: a stray trailing quote from a partial paste is dropped too.
func Clean(raw string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "\"'"))
}

func classifyLocal(raw string) (Source, error) {
	path, err := config.ExpandPath(raw)
	if err != nil {
		return Source{}, services.Wrap(services.ErrInvalidInput, "source", "classify", "Invalid path", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Source{}, services.Wrap(services.ErrInvalidInput, "source", "classify",
				fmt.Sprintf("File not found: %s", path), nil)
		}
		return Source{}, services.Wrap(services.ErrInvalidInput, "source", "classify", "Cannot access file", err)
	}
	if !info.Mode().IsRegular() {
		return Source{}, services.Wrap(services.ErrInvalidInput, "source", "classify",
			fmt.Sprintf("Not a regular file: %s", path), nil)
	}
	file, err := os.Open(path)
	if err != nil {
		return Source{}, services.Wrap(services.ErrInvalidInput, "source", "classify",
			fmt.Sprintf("File is not readable: %s", path), err)
	}
	file.Close()
	return Source{Kind: KindLocal, Path: path}, nil
}

func pathFromFileURI(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Host != "" && parsed.Host != "localhost" {
		return "", fmt.Errorf("file URI host %q is not local", parsed.Host)
	}
	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
	}
	if path == "" {
		return "", errors.New("file URI has no path")
	}
	// file:///C:/videos/x.mpd parses to /C:/videos/x.mpd
	if runtime.GOOS == "windows" && len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}
