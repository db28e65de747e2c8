package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Output contains defaults applied to the requested output filename.
type Output struct {
	DefaultName      string `toml:"default_name"`
	DefaultContainer string `toml:"default_container"`
}

// FFmpeg contains configuration for locating the FFmpeg binary.
type FFmpeg struct {
	// Binary is an explicit path or command name. It wins over every other
	// lookup when set.
	Binary string `toml:"binary"`
	// BundledDir overrides the directory searched for bundled binaries. It is
	// shared by ffmpeg and yt-dlp. When empty the directory of the running
	// executable (and its bin/ subdirectory) is searched.
	BundledDir string `toml:"bundled_dir"`
	// AllowDownload lets the resolver fetch a managed FFmpeg build when no
	// other copy is available.
	AllowDownload bool `toml:"allow_download"`
}

// Downloader contains configuration for the yt-dlp integration.
type Downloader struct {
	Binary             string `toml:"binary"`
	AutoInstall        bool   `toml:"auto_install"`
	Format             string `toml:"format"`
	ProgressIntervalMS int    `toml:"progress_interval_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Notifications configures optional ntfy delivery of conversion results.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-downloads.
	// Empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for mpd2mp4.
//
// Configuration sections by subsystem:
//   - Output: default filename and container for the converted file
//   - FFmpeg: binary discovery for local remuxing and stream merging
//   - Downloader: yt-dlp binary, format selector, and progress cadence
//   - Logging: log format, level, and optional log file
//   - Notifications: ntfy topic for completion and failure messages
type Config struct {
	Output        Output        `toml:"output"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Downloader    Downloader    `toml:"downloader"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	loadDotEnv()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads an optional .env file from the working directory. Values
// already present in the environment are left untouched.
func loadDotEnv() {
	info, err := os.Stat(dotEnvFile)
	if err != nil || info.IsDir() {
		return
	}
	_ = godotenv.Load(dotEnvFile)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ContainerExtension returns the default container as a file extension
// including the leading dot.
func (c *Config) ContainerExtension() string {
	return "." + c.Output.DefaultContainer
}

// IsSupportedContainer reports whether name (with or without a leading dot)
// is a container the converter can produce.
func IsSupportedContainer(name string) bool {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	for _, candidate := range SupportedContainers {
		if candidate == name {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
