package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeOutput()
	if err := c.normalizeFFmpeg(); err != nil {
		return err
	}
	if err := c.normalizeDownloader(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizeOutput() {
	c.Output.DefaultContainer = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Output.DefaultContainer)), ".")
	if c.Output.DefaultContainer == "" {
		c.Output.DefaultContainer = defaultContainer
	}
	c.Output.DefaultName = strings.TrimSpace(c.Output.DefaultName)
	if c.Output.DefaultName == "" {
		c.Output.DefaultName = "output." + c.Output.DefaultContainer
	}
}

func (c *Config) normalizeFFmpeg() error {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if value, ok := os.LookupEnv(envFFmpegBinary); ok && strings.TrimSpace(value) != "" {
		c.FFmpeg.Binary = strings.TrimSpace(value)
	}
	var err error
	if c.FFmpeg.Binary, err = expandBinary(c.FFmpeg.Binary); err != nil {
		return fmt.Errorf("ffmpeg.binary: %w", err)
	}
	if c.FFmpeg.BundledDir, err = expandPath(strings.TrimSpace(c.FFmpeg.BundledDir)); err != nil {
		return fmt.Errorf("ffmpeg.bundled_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownloader() error {
	c.Downloader.Binary = strings.TrimSpace(c.Downloader.Binary)
	if value, ok := os.LookupEnv(envYtdlpBinary); ok && strings.TrimSpace(value) != "" {
		c.Downloader.Binary = strings.TrimSpace(value)
	}
	var err error
	if c.Downloader.Binary, err = expandBinary(c.Downloader.Binary); err != nil {
		return fmt.Errorf("downloader.binary: %w", err)
	}
	c.Downloader.Format = strings.TrimSpace(c.Downloader.Format)
	if c.Downloader.Format == "" {
		c.Downloader.Format = defaultFormat
	}
	if c.Downloader.ProgressIntervalMS <= 0 {
		c.Downloader.ProgressIntervalMS = defaultProgressIntervalMS
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if value, ok := os.LookupEnv(envNtfyTopic); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = strings.TrimSpace(value)
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

// expandBinary expands values that look like paths and leaves bare command
// names (resolved later through PATH) untouched.
func expandBinary(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if !strings.HasPrefix(value, "~") && !strings.ContainsRune(value, '/') && !strings.ContainsRune(value, filepath.Separator) {
		return value, nil
	}
	return expandPath(value)
}
