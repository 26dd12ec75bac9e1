package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Scratch.StaleHours <= 0 {
		return errors.New("scratch.stale_hours must be positive")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.CRF < 0 || c.Encoding.CRF > 51 {
		return errors.New("encoding.crf must be between 0 and 51")
	}
	if c.Encoding.AudioSampleRate < 0 {
		return errors.New("encoding.audio_sample_rate must be positive")
	}
	if c.Encoding.TimeoutSeconds < 0 {
		return errors.New("encoding.timeout_seconds must not be negative (0 disables the timeout)")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.TimeoutSeconds < 0 {
		return errors.New("download.timeout_seconds must not be negative (0 disables the timeout)")
	}
	if c.Download.MaxRedirects < 0 {
		return errors.New("download.max_redirects must not be negative (0 disables the limit)")
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Cache.Dir) == "" {
		return errors.New("cache.dir must be set when cache.enabled is true")
	}
	if c.Cache.MaxGiB <= 0 {
		return errors.New("cache.max_gib must be positive when cache.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
