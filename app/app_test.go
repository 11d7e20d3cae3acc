package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockManifest = `
[provider]
type = "mock"
name = "Mock"

[[provider.settings]]
key = "api_key"
label = "API Key"
type = "password"
env_var = "MOCK_API_KEY"

[[provider.settings]]
key = "models"
label = "Model Override"
type = "text"
`

func newApp(t *testing.T) *App {
	t.Helper()

	pluginsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pluginsDir, "mock_plugin.toml"), []byte(mockManifest), 0o644))

	a, err := New(Options{
		DataDir:    t.TempDir(),
		PluginsDir: pluginsDir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestProviderID(t *testing.T) {
	assert.Equal(t, "openai", ProviderID("openai_plugin"))
	assert.Equal(t, "openai", ProviderID("openai"))
}

func TestBootstrapRegistersAndSelects(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)

	require.NoError(t, a.Bootstrap(ctx))

	assert.Equal(t, 1, a.Manager.Size())
	id, p := a.Manager.ActiveProvider()
	assert.Equal(t, "mock", id)
	require.NotNil(t, p)
	assert.Equal(t, "Mock", p.Config().Name)
	assert.Equal(t, "mock-small", a.Manager.ActiveModel())
}

func TestBootstrapSkipsDisabledProvider(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)

	a.Store.SetEnabled("mock", false)
	require.NoError(t, a.Store.Save())

	require.NoError(t, a.Bootstrap(ctx))
	assert.Equal(t, 0, a.Manager.Size())
}

func TestUpdateSettingRoutesSecretsToEnv(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	require.NoError(t, a.Bootstrap(ctx))

	t.Setenv("MOCK_API_KEY", "")
	require.NoError(t, a.UpdateSetting(ctx, "mock", "api_key", "sk-test"))

	assert.Equal(t, "sk-test", os.Getenv("MOCK_API_KEY"))

	envData, err := os.ReadFile(a.Env.Path())
	require.NoError(t, err)
	assert.Contains(t, string(envData), "MOCK_API_KEY=sk-test")

	// The secret must never reach the general settings file.
	tomlPath := filepath.Join(a.DataDir, "providers.toml")
	if data, err := os.ReadFile(tomlPath); err == nil {
		assert.NotContains(t, string(data), "sk-test")
	}
	assert.Empty(t, a.Store.Setting("mock", "api_key"))
}

func TestUpdateSettingNonSecretTakesEffect(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	require.NoError(t, a.Bootstrap(ctx))
	require.Equal(t, "mock-small", a.Manager.ActiveModel())

	require.NoError(t, a.UpdateSetting(ctx, "mock", "models", "alpha,beta"))

	assert.Equal(t, "alpha,beta", a.Store.Setting("mock", "models"))
	assert.Equal(t, "alpha", a.Manager.ActiveModel(), "the rebuilt provider's listing drives reselection")
}

func TestUpdateSettingUnknown(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	require.NoError(t, a.Bootstrap(ctx))

	assert.Error(t, a.UpdateSetting(ctx, "mock", "nonexistent", "v"))
	assert.Error(t, a.UpdateSetting(ctx, "ghost", "api_key", "v"))
}

func TestDisableThenEnableProvider(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	require.NoError(t, a.Bootstrap(ctx))

	require.NoError(t, a.DisableProvider("mock"))
	assert.False(t, a.Store.Enabled("mock"))
	p, _ := a.Manager.Provider("mock")
	assert.Equal(t, "disabled", string(p.Config().Status))

	require.NoError(t, a.EnableProvider(ctx, "mock"))
	assert.True(t, a.Store.Enabled("mock"))
	p, _ = a.Manager.Provider("mock")
	assert.Equal(t, "active", string(p.Config().Status))
}

func TestReloadPlugin(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	require.NoError(t, a.Bootstrap(ctx))

	// Rewrite the manifest with a new display name and reload.
	updated := `
[provider]
type = "mock"
name = "Renamed"
`
	require.NoError(t, os.WriteFile(filepath.Join(a.PluginsDir, "mock_plugin.toml"), []byte(updated), 0o644))
	require.True(t, a.ReloadPlugin(ctx, "mock_plugin"))

	p, ok := a.Manager.Provider("mock")
	require.True(t, ok)
	assert.Equal(t, "Renamed", p.Config().Name)
}
