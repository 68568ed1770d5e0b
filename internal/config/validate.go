package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.base_url must use http or https, got %q", c.Server.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server.base_url must include a host, got %q", c.Server.BaseURL)
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return errors.New("server.request_timeout_seconds must be positive")
	}
	if c.Sync.PollIntervalMillis < 0 {
		return errors.New("sync.poll_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageSQLite, StorageFile, StorageMemory:
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want sqlite, file, or memory)", c.Storage.Backend)
	}
	if c.Storage.StateDir == "" && c.Storage.Backend != StorageMemory {
		return errors.New("storage.state_dir must be set")
	}
	return nil
}

func (c *Config) validateDisplay() error {
	if err := oneOf("display.preview_mode", c.Display.PreviewMode, "text", "timestamps"); err != nil {
		return err
	}
	if err := oneOf("display.summary_render_mode", c.Display.SummaryRenderMode, "text", "markdown"); err != nil {
		return err
	}
	return oneOf("display.theme", c.Display.Theme, "system", "light", "dark")
}

func (c *Config) validateLogging() error {
	if err := oneOf("logging.format", c.Logging.Format, "console", "json"); err != nil {
		return err
	}
	return oneOf("logging.level", c.Logging.Level, "debug", "info", "warn", "error")
}

func oneOf(field, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q", field, value)
}
