// Package config provides configuration management for casekeeper.
package config

import (
	"fmt"
	"net/url"

	"github.com/solatis/casekeeper/internal/types"
)

// Config holds every setting the CLI and engine facade read.
type Config struct {
	Engine   EngineConfig
	Database DatabaseConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// EngineConfig tunes the codec and validator.
type EngineConfig struct {
	// DefaultProfile applies when neither the caller nor the case names one.
	// Empty means infer from the receiver identifier.
	DefaultProfile types.Profile
	// PathCacheSize bounds the compiled addressing-expression cache.
	PathCacheSize int
}

type DatabaseConfig struct {
	URL string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig names the node-exporter textfile written after each CLI
// command. Empty disables the export.
type MetricsConfig struct {
	Textfile string
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{PathCacheSize: 512},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

var (
	logLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"json": true, "text": true}
)

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Engine.DefaultProfile != "" {
		if _, err := types.ParseProfile(string(c.Engine.DefaultProfile)); err != nil {
			return fmt.Errorf("engine.default_profile: %w", err)
		}
	}
	if c.Engine.PathCacheSize <= 0 {
		return fmt.Errorf("engine.path_cache_size must be positive, got %d", c.Engine.PathCacheSize)
	}
	if !logLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error, got %q", c.Log.Level)
	}
	if !logFormats[c.Log.Format] {
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Database.URL != "" {
		u, err := url.Parse(c.Database.URL)
		if err != nil {
			return fmt.Errorf("database.url: %w", err)
		}
		if u.Scheme != "sqlite" && u.Scheme != "postgres" {
			return fmt.Errorf("database.url scheme must be sqlite or postgres, got %q", u.Scheme)
		}
	}
	return nil
}
