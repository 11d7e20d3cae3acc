// Package config handles kichat's persisted configuration: platform
// paths, the per-provider settings store, and the .env secret file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetConfigDir returns the platform-specific configuration directory.
// Linux/Mac: ~/.config/kichat
// Windows: C:\Users\username\.config\kichat
func GetConfigDir() string {
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		return filepath.Join(userProfile, ".config", "kichat")
	}

	home := os.Getenv("HOME")
	return filepath.Join(home, ".config", "kichat")
}

// GetDefaultDataDir returns the platform-specific default data directory,
// overridable with KICHAT_DATA_DIR.
// Linux/Mac: ~/.local/share/kichat
// Windows: C:\Users\username\AppData\Local\kichat
func GetDefaultDataDir() string {
	if dir := os.Getenv("KICHAT_DATA_DIR"); dir != "" {
		return ExpandPath(dir)
	}

	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			localAppData = filepath.Join(userProfile, "AppData", "Local")
		}
		return filepath.Join(localAppData, "kichat")
	}

	home := os.Getenv("HOME")
	return filepath.Join(home, ".local", "share", "kichat")
}

// GetDefaultPluginsDir returns the conventional plugins location.
func GetDefaultPluginsDir() string {
	return filepath.Join(GetConfigDir(), "plugins")
}

// EnvFilePath returns the location of the secret .env file.
func EnvFilePath(dataDir string) string {
	return filepath.Join(dataDir, ".env")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// EnsureDir creates dir with user-only access if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
