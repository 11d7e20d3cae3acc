package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProviderEntry is the persisted state of one provider: whether the user
// has it enabled, plus the non-secret setting values.
type ProviderEntry struct {
	Enabled  bool              `toml:"enabled"`
	Settings map[string]string `toml:"settings,omitempty"`
}

type providersFile struct {
	Providers map[string]ProviderEntry `toml:"providers"`
}

// Store persists per-provider configuration to providers.toml in the data
// directory, independent of the volatile runtime state on each
// model.ProviderConfig. Secrets never land here; SetSetting enforces that.
type Store struct {
	path      string
	providers map[string]ProviderEntry
}

// NewStore creates a store rooted in dataDir and loads any existing file.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		path:      filepath.Join(dataDir, "providers.toml"),
		providers: make(map[string]ProviderEntry),
	}

	if !FileExists(s.path) {
		return s, nil
	}

	var pf providersFile
	if _, err := toml.DecodeFile(s.path, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse providers config: %w", err)
	}
	if pf.Providers != nil {
		s.providers = pf.Providers
	}

	return s, nil
}

// Save writes the store back to disk with user-only permissions.
func (s *Store) Save() error {
	if err := EnsureDir(filepath.Dir(s.path)); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create providers config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(providersFile{Providers: s.providers}); err != nil {
		return fmt.Errorf("failed to encode providers config: %w", err)
	}

	return nil
}

// Enabled reports whether providerID is enabled. Providers without a
// persisted entry default to enabled, so a fresh install registers
// everything the plugins directory offers.
func (s *Store) Enabled(providerID string) bool {
	entry, ok := s.providers[providerID]
	if !ok {
		return true
	}
	return entry.Enabled
}

// SetEnabled records the enabled flag for providerID.
func (s *Store) SetEnabled(providerID string, enabled bool) {
	entry := s.providers[providerID]
	entry.Enabled = enabled
	s.providers[providerID] = entry
}

// Setting returns the persisted value for one provider setting.
func (s *Store) Setting(providerID, key string) string {
	return s.providers[providerID].Settings[key]
}

// Settings returns a copy of all persisted settings for providerID.
func (s *Store) Settings(providerID string) map[string]string {
	src := s.providers[providerID].Settings
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// SetSetting records a non-secret provider setting. The api_key key is the
// explicit security boundary of the settings file: it belongs to the env
// store, and persisting it here is refused.
func (s *Store) SetSetting(providerID, key, value string) error {
	if key == "api_key" {
		return fmt.Errorf("refusing to persist secret setting %q; use the env store", key)
	}

	entry, ok := s.providers[providerID]
	if !ok {
		entry.Enabled = true
	}
	if entry.Settings == nil {
		entry.Settings = make(map[string]string)
	}
	entry.Settings[key] = value
	s.providers[providerID] = entry
	return nil
}
