package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFile manages the .env secret file. Saving a key rewrites the file
// preserving unrelated entries and mirrors the change into the process
// environment, so providers initialized afterwards pick it up without a
// restart. An empty value deletes the key from both.
type EnvFile struct {
	path string
}

// NewEnvFile creates an EnvFile over path. The file may not exist yet.
func NewEnvFile(path string) *EnvFile {
	return &EnvFile{path: path}
}

// Path returns the backing file path.
func (e *EnvFile) Path() string {
	return e.path
}

// Load applies the file's entries to the process environment, overriding
// existing variables (the app's .env is authoritative at startup).
// A missing file is not an error.
func (e *EnvFile) Load() error {
	if !FileExists(e.path) {
		return nil
	}
	if err := godotenv.Overload(e.path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Get reads key from the process environment.
func (e *EnvFile) Get(key string) string {
	return os.Getenv(key)
}

// Set persists key=value. Existing non-matching entries are preserved, a
// matching key is replaced, and an empty value removes the line entirely.
// The process environment is updated in the same step.
func (e *EnvFile) Set(key, value string) error {
	vars := make(map[string]string)
	if FileExists(e.path) {
		existing, err := godotenv.Read(e.path)
		if err != nil {
			return fmt.Errorf("failed to read env file: %w", err)
		}
		vars = existing
	}

	if value == "" {
		delete(vars, key)
		if err := os.Unsetenv(key); err != nil {
			return fmt.Errorf("failed to unset %s: %w", key, err)
		}
	} else {
		vars[key] = value
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return e.write(vars)
}

func (e *EnvFile) write(vars map[string]string) error {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, vars[k])
	}

	if err := os.WriteFile(e.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}
