// Package config loads shell settings from a TOML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	koanftoml "github.com/knadh/koanf/parsers/toml/v2"
	koanfenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. TISH_LOG_LEVEL.
const EnvPrefix = "TISH_"

// Config is the full shell configuration.
type Config struct {
	Prompt       string    `koanf:"prompt"`
	HistoryFile  string    `koanf:"history_file"`
	MaxLineBytes int       `koanf:"max_line_bytes"`
	MaxScanBytes int       `koanf:"max_scan_bytes"`
	Log          LogConfig `koanf:"log"`
}

// LogConfig holds diagnostic logging settings. Logs go to a rotating
// file, never the terminal; the screen belongs to raw mode.
type LogConfig struct {
	File     string `koanf:"file"`
	Level    string `koanf:"level"`
	MaxSize  int    `koanf:"max_size"` // megabytes per file
	Backups  int    `koanf:"backups"`
	MaxDays  int    `koanf:"max_days"`
	Compress bool   `koanf:"compress"`
}

// Default returns the configuration with built-in defaults.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Prompt:       "tish",
		HistoryFile:  filepath.Join(home, ".tish_history"),
		MaxLineBytes: 4096,
		MaxScanBytes: 4096,
		Log: LogConfig{
			File:    filepath.Join(home, ".local", "share", "tish", "tish.log"),
			Level:   "info",
			MaxSize: 10,
			Backups: 3,
			MaxDays: 28,
		},
	}
}

// DefaultPath is the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tish", "config.toml")
}

// Load layers defaults, the TOML file at path (skipped when absent) and
// TISH_ environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), koanftoml.Parser()); err != nil {
				return cfg, fmt.Errorf("config: load %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := k.Load(koanfenv.Provider(".", koanfenv.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// TISH_LOG_LEVEL becomes "log.level".
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
			return key, value
		},
	}), nil); err != nil {
		return cfg, fmt.Errorf("config: env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxLineBytes <= 0 {
		return fmt.Errorf("config: max_line_bytes must be positive, got %d", c.MaxLineBytes)
	}
	if c.MaxScanBytes <= 0 {
		return fmt.Errorf("config: max_scan_bytes must be positive, got %d", c.MaxScanBytes)
	}
	if c.HistoryFile == "" {
		return fmt.Errorf("config: history_file must be set")
	}
	return nil
}
