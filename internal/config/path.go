// Package config resolves pennywise configuration values.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultDir returns the directory that holds pennywise's config, database,
// model and session files.
func DefaultDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pennywise")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pennywise"
	}
	return filepath.Join(home, ".config", "pennywise")
}

// DefaultPath joins name onto DefaultDir.
func DefaultPath(name string) string {
	return filepath.Join(DefaultDir(), name)
}
