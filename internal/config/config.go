package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Config holds runtime settings for the CLI app.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Notify   NotifyConfig   `yaml:"notify" mapstructure:"notify"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
}

type DatabaseConfig struct {
	// Path is the sqlite file holding the settings store.
	Path string `yaml:"path" mapstructure:"path"`
}

type NotifyConfig struct {
	// Addr is where a watch session listens for settings changes.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// File, when set, receives log lines instead of stderr.
	File string `yaml:"file" mapstructure:"file"`
}

type BrowserConfig struct {
	Headless  bool `yaml:"headless" mapstructure:"headless"`
	TimeoutMs int  `yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "deploytidy.db"},
		Notify:   NotifyConfig{Addr: "127.0.0.1:7878"},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Browser:  BrowserConfig{Headless: false, TimeoutMs: 30000},
	}
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if _, _, err := net.SplitHostPort(c.Notify.Addr); err != nil {
		return fmt.Errorf("notify.addr must be host:port: %w", err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		return fmt.Errorf("logging.level is not a known level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json: %s", c.Logging.Format)
	}
	if c.Browser.TimeoutMs <= 0 {
		return fmt.Errorf("browser.timeout_ms must be positive: %d", c.Browser.TimeoutMs)
	}
	return nil
}
