// Package provider implements the vendor integrations behind the
// model.Provider contract.
//
// kichat supports multiple LLM providers (OpenAI, Anthropic, Google Gemini,
// Ollama) plus a deterministic mock used in tests. Implementations register
// a named factory at startup, database/sql driver style, so the plugin
// loader can bind a manifest's declared type to a concrete constructor
// without any runtime reflection.
package provider

import (
	"os"
	"sort"
	"sync"

	"kichat/model"
)

// Settings are the resolved configuration values for one provider
// instance, keyed by the setting keys declared in its plugin manifest.
type Settings map[string]string

// Get returns the value for key, or "" when unset.
func (s Settings) Get(key string) string {
	return s[key]
}

// GetDefault returns the value for key, or def when unset.
func (s Settings) GetDefault(key, def string) string {
	if v := s[key]; v != "" {
		return v
	}
	return def
}

// GetEnv returns the value for key, falling back to the named environment
// variable. The env lookup happens at call time, so a secret saved through
// the env store takes effect on the next Initialize without a restart.
func (s Settings) GetEnv(key, envVar string) string {
	if v := s[key]; v != "" {
		return v
	}
	return os.Getenv(envVar)
}

// Factory constructs an uninitialized provider instance. The returned
// provider owns cfg for its lifetime.
type Factory func(cfg *model.ProviderConfig, settings Settings) model.Provider

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider factory available under the given type name.
// Last registration wins; implementations call it from init().
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Types returns the registered provider type names, sorted.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
