package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.cassetterc, $XDG_CONFIG_HOME/cassette/config.toml, ~/.config/cassette/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		cfg = Default()
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultPath returns the path `config init` writes to.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cassetterc"
	}
	return filepath.Join(home, ".cassetterc")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".cassetterc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "cassette", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
// A .env file in the working directory is read first; variables already
// set in the environment win over it.
func applyEnvOverrides(cfg *Config) {
	_ = godotenv.Load()

	// Server
	if v := os.Getenv("CASSETTE_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("CASSETTE_SEND_REFERER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.SendReferer = b
		}
	}
	if v := os.Getenv("CASSETTE_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.Timeout = i
		}
	}

	// Session
	if v := os.Getenv("CASSETTE_SESSION_FILE"); v != "" {
		cfg.Session.File = v
	}

	// Defaults
	if v := os.Getenv("CASSETTE_DEFAULT_DEVICE"); v != "" {
		cfg.Defaults.Device = v
	}

	// Tail
	if v := os.Getenv("CASSETTE_TAIL_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Tail.Interval = i
		}
	}

	// Log
	if v := os.Getenv("CASSETTE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CASSETTE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
