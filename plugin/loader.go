// Package plugin discovers and loads provider plugins from a directory.
//
// A plugin artifact is a TOML manifest binding a statically registered
// provider type (see the provider package) to a display name and a set of
// setting declarations. Keeping the artifact as data instead of code means
// hot reload stays a plain file re-read: edit the manifest, call Reload,
// no process restart.
package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"kichat/provider"
)

const manifestExt = ".toml"

// Loaded is a successfully loaded plugin: the manifest plus the factory
// its provider type resolved to.
type Loaded struct {
	Name    string // plugin name, the file stem
	Spec    ProviderSpec
	Factory provider.Factory
}

// Loader scans a directory for provider manifests. One failing plugin
// never aborts the others; failures are recorded per plugin and surfaced
// in aggregate.
type Loader struct {
	dir string

	mu     sync.Mutex
	loaded map[string]*Loaded
	errors map[string]string
}

// NewLoader creates a loader over dir. The directory is created on first
// discovery if absent.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:    dir,
		loaded: make(map[string]*Loaded),
		errors: make(map[string]string),
	}
}

// Dir returns the plugins directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Discover lists the plugin names in the directory, sorted. Names starting
// with an underscore are reserved for templates and private helpers and
// are skipped. A missing directory is created (first-run bootstrap, with a
// template manifest dropped in) and yields an empty result.
func (l *Loader) Discover() ([]string, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create plugins directory: %w", err)
		}
		templatePath := filepath.Join(l.dir, "_template"+manifestExt)
		if err := os.WriteFile(templatePath, []byte(templateManifest), 0o644); err != nil {
			log.Warn().Err(err).Msg("failed to write plugin template")
		}
		log.Info().Str("dir", l.dir).Msg("created plugins directory")
		return nil, nil
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") || !strings.HasSuffix(name, manifestExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, manifestExt))
	}
	sort.Strings(names)

	return names, nil
}

// Load loads a single plugin by name. Successes are cached; repeated calls
// are cheap. On failure nothing is cached and the error is recorded,
// distinguishable by message: read/parse failures, a manifest without a
// provider definition, and a provider type nothing has registered.
func (l *Loader) Load(name string) (*Loaded, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(name)
}

func (l *Loader) loadLocked(name string) (*Loaded, error) {
	if p, ok := l.loaded[name]; ok {
		return p, nil
	}

	fail := func(err error) (*Loaded, error) {
		l.errors[name] = err.Error()
		log.Warn().Str("plugin", name).Err(err).Msg("failed to load plugin")
		return nil, err
	}

	path := filepath.Join(l.dir, name+manifestExt)
	if _, err := os.Stat(path); err != nil {
		return fail(fmt.Errorf("plugin file not found: %s", path))
	}

	var manifest Manifest
	if _, err := toml.DecodeFile(path, &manifest); err != nil {
		return fail(fmt.Errorf("error loading plugin: %w", err))
	}

	if manifest.Provider == nil || manifest.Provider.Type == "" {
		return fail(fmt.Errorf("no provider definition found"))
	}

	factory, ok := provider.Lookup(manifest.Provider.Type)
	if !ok {
		return fail(fmt.Errorf("no registered provider type %q", manifest.Provider.Type))
	}

	spec := *manifest.Provider
	if spec.Name == "" {
		spec.Name = name
	}

	p := &Loaded{Name: name, Spec: spec, Factory: factory}
	l.loaded[name] = p
	delete(l.errors, name)
	log.Debug().Str("plugin", name).Str("type", spec.Type).Msg("loaded plugin")

	return p, nil
}

// LoadAll discovers and loads every plugin, accumulating independent
// successes and failures. The aggregate outcome is logged once.
func (l *Loader) LoadAll() (map[string]*Loaded, error) {
	names, err := l.Discover()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	for _, name := range names {
		l.loadLocked(name) //nolint:errcheck // recorded in l.errors
	}
	loaded := make(map[string]*Loaded, len(l.loaded))
	for k, v := range l.loaded {
		loaded[k] = v
	}
	failures := len(l.errors)
	l.mu.Unlock()

	log.Info().
		Str("dir", l.dir).
		Int("loaded", len(loaded)).
		Int("failed", failures).
		Msg("plugin discovery complete")

	return loaded, nil
}

// Reload evicts any cached success or error for name and loads it again.
// Returns true when the plugin loads cleanly afterwards.
func (l *Loader) Reload(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.loaded, name)
	delete(l.errors, name)

	_, err := l.loadLocked(name)
	return err == nil
}

// Errors returns a copy of the per-plugin load failures.
func (l *Loader) Errors() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	errs := make(map[string]string, len(l.errors))
	for k, v := range l.errors {
		errs[k] = v
	}
	return errs
}
