// Package app wires the pieces together: plugin discovery, provider
// construction, configuration and secret stores, the selection manager,
// and conversation storage.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"kichat/config"
	"kichat/manager"
	"kichat/model"
	"kichat/plugin"
	"kichat/provider"
	"kichat/state"
	"kichat/storage"
)

// Options controls where the app keeps its files. Empty fields fall back
// to the platform defaults.
type Options struct {
	DataDir    string
	PluginsDir string
}

// App is the assembled application core.
type App struct {
	DataDir    string
	PluginsDir string

	Loader        *plugin.Loader
	Store         *config.Store
	Env           *config.EnvFile
	State         *state.Store
	Manager       *manager.Manager
	Conversations *storage.ConversationStore

	specs map[string]plugin.ProviderSpec // provider id -> manifest spec
}

// New builds an App: directories are created, the .env secrets are loaded
// into the process environment, and the stores are opened. Providers are
// not constructed until Bootstrap.
func New(opts Options) (*App, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = config.GetDefaultDataDir()
	}
	dataDir = config.ExpandPath(dataDir)

	pluginsDir := opts.PluginsDir
	if pluginsDir == "" {
		pluginsDir = config.GetDefaultPluginsDir()
	}
	pluginsDir = config.ExpandPath(pluginsDir)

	if err := config.EnsureDir(dataDir); err != nil {
		return nil, err
	}

	env := config.NewEnvFile(config.EnvFilePath(dataDir))
	if err := env.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load env file")
	}

	store, err := config.NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	st, err := state.Open(dataDir)
	if err != nil {
		return nil, err
	}

	conversations, err := storage.NewConversationStore(dataDir)
	if err != nil {
		return nil, err
	}

	return &App{
		DataDir:       dataDir,
		PluginsDir:    pluginsDir,
		Loader:        plugin.NewLoader(pluginsDir),
		Store:         store,
		Env:           env,
		State:         st,
		Manager:       manager.New(st),
		Conversations: conversations,
		specs:         make(map[string]plugin.ProviderSpec),
	}, nil
}

// ProviderID derives the provider id from a plugin name: an optional
// "_plugin" suffix is stripped, so openai_plugin.toml and openai.toml
// both yield the id "openai".
func ProviderID(pluginName string) string {
	return strings.TrimSuffix(pluginName, "_plugin")
}

// Bootstrap loads every plugin, constructs and initializes its provider,
// and registers the result with the manager in discovery order. A failing
// provider is registered anyway with its error recorded, so the status
// cascade can report it. Finally the persisted selection is restored.
func (a *App) Bootstrap(ctx context.Context) error {
	names, err := a.Loader.Discover()
	if err != nil {
		return fmt.Errorf("plugin discovery failed: %w", err)
	}

	for _, name := range names {
		loaded, err := a.Loader.Load(name)
		if err != nil {
			continue // recorded by the loader
		}

		id := ProviderID(name)
		a.specs[id] = loaded.Spec

		if !a.Store.Enabled(id) {
			log.Debug().Str("provider", id).Msg("provider disabled, skipping")
			continue
		}

		p := loaded.Factory(model.NewProviderConfig(loaded.Spec.Name), a.resolveSettings(id, loaded.Spec))
		if err := p.Initialize(ctx); err != nil {
			log.Warn().Str("provider", id).Err(err).Msg("provider initialization failed")
		}
		a.Manager.Register(id, p)
	}

	log.Info().
		Int("registered", a.Manager.Size()).
		Int("failed", len(a.Loader.Errors())).
		Msg("providers initialized")

	return a.Manager.RestoreSelection(ctx)
}

// resolveSettings merges manifest defaults with the persisted settings
// store. Secrets are left out entirely: providers read them from the
// environment at Initialize time, which the env store keeps current.
func (a *App) resolveSettings(providerID string, spec plugin.ProviderSpec) provider.Settings {
	settings := make(provider.Settings)
	for _, s := range spec.Settings {
		if s.Secret() {
			continue
		}
		if s.Default != "" {
			settings[s.Key] = s.Default
		}
	}
	for k, v := range a.Store.Settings(providerID) {
		settings[k] = v
	}
	return settings
}

// SettingSpec returns the manifest declaration for one provider setting.
func (a *App) SettingSpec(providerID, key string) (plugin.SettingSpec, bool) {
	spec, ok := a.specs[providerID]
	if !ok {
		return plugin.SettingSpec{}, false
	}
	for _, s := range spec.Settings {
		if s.Key == key {
			return s, true
		}
	}
	return plugin.SettingSpec{}, false
}

// UpdateSetting saves a provider setting and, when the provider is
// active, re-runs the switch protocol so the change takes effect
// immediately. Secret settings go to the env file under the manifest's
// declared variable; everything else goes to the settings store.
func (a *App) UpdateSetting(ctx context.Context, providerID, key, value string) error {
	spec, ok := a.SettingSpec(providerID, key)
	if !ok {
		return fmt.Errorf("provider %q has no setting %q", providerID, key)
	}

	if spec.Secret() {
		envVar := spec.EnvVar
		if envVar == "" {
			return fmt.Errorf("secret setting %q declares no env_var", key)
		}
		if err := a.Env.Set(envVar, value); err != nil {
			return err
		}
	} else {
		if err := a.Store.SetSetting(providerID, key, value); err != nil {
			return err
		}
		if err := a.Store.Save(); err != nil {
			return err
		}
		// The settings map was snapshotted at construction; rebuild the
		// instance so the new value is in effect.
		if _, registered := a.Manager.Provider(providerID); registered {
			a.reconstruct(ctx, providerID)
		}
	}

	if active, _ := a.Manager.ActiveProvider(); active == providerID {
		a.Manager.Stage(providerID)
		return a.Manager.Commit(ctx)
	}
	return nil
}

// reconstruct rebuilds a registered provider instance from its manifest
// and the current settings, replacing the old instance in the manager.
func (a *App) reconstruct(ctx context.Context, providerID string) {
	spec, ok := a.specs[providerID]
	if !ok {
		return
	}
	factory, ok := provider.Lookup(spec.Type)
	if !ok {
		return
	}

	p := factory(model.NewProviderConfig(spec.Name), a.resolveSettings(providerID, spec))
	if err := p.Initialize(ctx); err != nil {
		log.Warn().Str("provider", providerID).Err(err).Msg("provider initialization failed")
	}
	a.Manager.Register(providerID, p)
}

// EnableProvider marks a provider enabled, constructs it if needed, and
// registers it with the manager.
func (a *App) EnableProvider(ctx context.Context, providerID string) error {
	if _, ok := a.specs[providerID]; !ok {
		return fmt.Errorf("unknown provider %q", providerID)
	}

	a.Store.SetEnabled(providerID, true)
	if err := a.Store.Save(); err != nil {
		return err
	}

	// Rebuild unconditionally: a previously disabled instance carries a
	// stale disabled status.
	a.reconstruct(ctx, providerID)
	return nil
}

// DisableProvider marks a provider disabled. The registered instance
// stays in place for the rest of the session but is flagged so the
// status cascade reflects it; it is not constructed on the next start.
func (a *App) DisableProvider(providerID string) error {
	if _, ok := a.specs[providerID]; !ok {
		return fmt.Errorf("unknown provider %q", providerID)
	}

	a.Store.SetEnabled(providerID, false)
	if err := a.Store.Save(); err != nil {
		return err
	}

	if p, ok := a.Manager.Provider(providerID); ok {
		p.Config().Status = model.StatusDisabled
	}
	return nil
}

// ReloadPlugin re-reads a plugin manifest from disk and, when it loads
// cleanly, rebuilds its provider from the fresh manifest.
func (a *App) ReloadPlugin(ctx context.Context, name string) bool {
	if !a.Loader.Reload(name) {
		return false
	}

	loaded, err := a.Loader.Load(name)
	if err != nil {
		return false
	}

	id := ProviderID(name)
	a.specs[id] = loaded.Spec
	if a.Store.Enabled(id) {
		a.reconstruct(ctx, id)
	}
	return true
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.State.Close()
}
