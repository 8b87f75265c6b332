package config

import (
	"os"
	"path/filepath"
)

// Application directory name used across all platforms.
const appName = "worldctl"

// Config file name.
const configFileName = "config.toml"

// DefaultConfigDir returns the directory for config files. Respects
// XDG_CONFIG_HOME, defaulting to ~/.config/worldctl.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultDataDir returns the directory for application data (token file,
// worlds cache). Respects XDG_DATA_HOME, defaulting to
// ~/.local/share/worldctl.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), configFileName)
}

// DefaultTokenPath returns the default token file path.
func DefaultTokenPath() string {
	return filepath.Join(DefaultDataDir(), "token")
}

// DefaultCachePath returns the default worlds cache database path.
func DefaultCachePath() string {
	return filepath.Join(DefaultDataDir(), "worlds.db")
}
