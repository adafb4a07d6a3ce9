package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	appDir     = "pokeme"
	configFile = "pokeme.yaml"
	dbFile     = "poke.db"
)

// Locate returns the configuration file to load. An explicit path must
// exist. Otherwise the XDG config dir, ~/.config and the working directory
// are searched in that order; an empty result means no file was found.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}

	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func searchPaths() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, appDir, configFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appDir, configFile))
	}
	return append(paths, configFile)
}

// ResolvePaths fills the database path and run directory from the
// environment when they are not set.
func (c *Config) ResolvePaths() error {
	var errs []error

	if c.Database.Path == "" {
		p, err := DefaultDatabasePath()
		if err != nil {
			errs = append(errs, err)
		}
		c.Database.Path = p
	}
	if c.Daemon.RunDir == "" {
		c.Daemon.RunDir = DefaultRunDir()
	}
	return errors.Join(errs...)
}

// DefaultDatabasePath returns $XDG_DATA_HOME/pokeme/poke.db, falling back
// to ~/.local/share/pokeme/poke.db.
func DefaultDatabasePath() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appDir, dbFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: locating home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDir, dbFile), nil
}

// DefaultRunDir returns $XDG_RUNTIME_DIR/pokeme, falling back to a per-user
// directory under the system temp dir.
func DefaultRunDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	return filepath.Join(os.TempDir(), appDir+"-"+strconv.Itoa(os.Getuid()))
}
