package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateDownloader(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateOutput() error {
	if !IsSupportedContainer(c.Output.DefaultContainer) {
		return fmt.Errorf("output.default_container must be one of %s, got %q", strings.Join(SupportedContainers, ", "), c.Output.DefaultContainer)
	}
	name := strings.TrimSpace(c.Output.DefaultName)
	if name == "" {
		return errors.New("output.default_name must be set")
	}
	if !IsSupportedContainer(filepath.Ext(name)) {
		return fmt.Errorf("output.default_name %q must end in a supported container extension", name)
	}
	return nil
}

func (c *Config) validateDownloader() error {
	if strings.TrimSpace(c.Downloader.Format) == "" {
		return errors.New("downloader.format must be set")
	}
	if c.Downloader.ProgressIntervalMS <= 0 {
		return errors.New("downloader.progress_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}
