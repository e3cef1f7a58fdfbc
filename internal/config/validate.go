package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration invariants that normalization cannot repair.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths: data_dir must not be empty")
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSelection() error {
	if c.Selection.ShortBatchSize > c.Selection.LongformBatchSize {
		return fmt.Errorf("selection: short_batch_size (%d) must not exceed longform_batch_size (%d)",
			c.Selection.ShortBatchSize, c.Selection.LongformBatchSize)
	}
	return nil
}

func (c *Config) validateYouTube() error {
	switch c.YouTube.PrivacyStatus {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("youtube: privacy_status must be public, unlisted, or private (got %q)", c.YouTube.PrivacyStatus)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging: format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
