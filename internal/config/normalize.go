package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeDisplay()
	return c.normalizeLogging()
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv("STENO_SERVER_URL"); ok && strings.TrimSpace(value) != "" {
		c.Server.BaseURL = value
	}
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("STENO_API_TOKEN"); ok {
			c.Server.APIToken = value
		}
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultBaseURL
	}
	if c.Server.RequestTimeoutSeconds == 0 {
		c.Server.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Sync.PollIntervalMillis == 0 {
		c.Sync.PollIntervalMillis = defaultPollIntervalMillis
	}
}

func (c *Config) normalizeStorage() error {
	if strings.TrimSpace(c.Storage.StateDir) == "" {
		c.Storage.StateDir = defaultStateDir
	}
	var err error
	if c.Storage.StateDir, err = expandPath(c.Storage.StateDir); err != nil {
		return fmt.Errorf("storage.state_dir: %w", err)
	}
	c.Storage.Backend = lowerOr(c.Storage.Backend, defaultStorageBackend)
	return nil
}

func (c *Config) normalizeDisplay() {
	c.Display.PreviewMode = lowerOr(c.Display.PreviewMode, defaultPreviewMode)
	c.Display.SummaryRenderMode = lowerOr(c.Display.SummaryRenderMode, defaultSummaryRenderMode)
	c.Display.Theme = lowerOr(c.Display.Theme, defaultTheme)
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = lowerOr(c.Logging.Format, defaultLogFormat)
	c.Logging.Level = lowerOr(c.Logging.Level, defaultLogLevel)
	if strings.TrimSpace(c.Logging.LogDir) == "" {
		c.Logging.LogDir = ""
		return nil
	}
	var err error
	if c.Logging.LogDir, err = expandPath(c.Logging.LogDir); err != nil {
		return fmt.Errorf("logging.log_dir: %w", err)
	}
	return nil
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
