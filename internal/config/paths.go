package config

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.whychat.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".whychat")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the client log file path.
func LogPath() string {
	return filepath.Join(LogDir(), "whychat.log")
}

// EnsureDirs creates the config directory tree with proper permissions.
func EnsureDirs() error {
	for _, d := range []string{BaseDir(), LogDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
