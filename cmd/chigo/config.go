package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries defaults that individual commands fall back to when
// the corresponding flag or argument is not given.
type Config struct {
	Database string `yaml:"database"`
	Root     uint32 `yaml:"root"`
	LogLevel string `yaml:"log_level"`
}

// loadConfig reads the YAML config at path. An empty path yields the
// zero config.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// database resolves the database path, preferring the command argument.
func (c *Config) database(arg string) string {
	if arg != "" {
		return arg
	}
	if c.Database != "" {
		return c.Database
	}
	return "chigo.db"
}

// root resolves the tree root page, preferring the command flag.
func (c *Config) root(flag uint32) uint32 {
	if flag != 0 {
		return flag
	}
	if c.Root != 0 {
		return c.Root
	}
	return 1
}

// logLevel maps the configured level name onto slog.
func (c *Config) logLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
