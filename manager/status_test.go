package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kichat/model"
)

func activeCfg(name string) *model.ProviderConfig {
	cfg := model.NewProviderConfig(name)
	cfg.SetInitError(nil)
	return cfg
}

func errCfg(name, msg string) *model.ProviderConfig {
	cfg := model.NewProviderConfig(name)
	cfg.SetInitError(errors.New(msg))
	return cfg
}

func someModels() []model.ModelInfo {
	return []model.ModelInfo{{ID: "m1", Name: "m1"}}
}

func TestReconcilePrecedence(t *testing.T) {
	tests := []struct {
		name         string
		registrySize int
		active       *model.ProviderConfig
		models       []model.ModelInfo
		wantState    State
		wantLabel    string
	}{
		{
			name:         "empty registry is critical",
			registrySize: 0,
			wantState:    StateCritical,
			wantLabel:    "Critical Failure",
		},
		{
			name:         "empty registry outranks everything",
			registrySize: 0,
			active:       activeCfg("P"),
			models:       someModels(),
			wantState:    StateCritical,
			wantLabel:    "Critical Failure",
		},
		{
			name:         "no active provider",
			registrySize: 2,
			wantState:    StateNoProvider,
			wantLabel:    "No Provider",
		},
		{
			name:         "401 classifies as auth failure",
			registrySize: 1,
			active:       errCfg("P", "401 Unauthorized"),
			wantState:    StateAuthFailed,
			wantLabel:    "P: Auth Failed",
		},
		{
			name:         "invalid key classifies as auth failure",
			registrySize: 1,
			active:       errCfg("P", "invalid API key provided"),
			wantState:    StateAuthFailed,
			wantLabel:    "P: Auth Failed",
		},
		{
			name:         "429 classifies as quota",
			registrySize: 1,
			active:       errCfg("P", "429 Too Many Requests"),
			wantState:    StateQuotaExceeded,
			wantLabel:    "P: Quota Exceeded",
		},
		{
			name:         "quota text classifies as quota",
			registrySize: 1,
			active:       errCfg("P", "insufficient quota remaining"),
			wantState:    StateQuotaExceeded,
			wantLabel:    "P: Quota Exceeded",
		},
		{
			name:         "connection errors classify as no connection",
			registrySize: 1,
			active:       errCfg("P", "dial tcp: connect: connection refused"),
			wantState:    StateNoConnection,
			wantLabel:    "P: No Connection",
		},
		{
			name:         "unclassified error stays generic",
			registrySize: 1,
			active:       errCfg("P", "internal server error"),
			wantState:    StateError,
			wantLabel:    "P: Error",
		},
		{
			name:         "error outranks model availability",
			registrySize: 1,
			active:       errCfg("P", "401"),
			models:       someModels(),
			wantState:    StateAuthFailed,
			wantLabel:    "P: Auth Failed",
		},
		{
			name:         "setup needed",
			registrySize: 1,
			active:       model.NewProviderConfig("P"),
			wantState:    StateSetupNeeded,
			wantLabel:    "P: Configure",
		},
		{
			name:         "active without models",
			registrySize: 1,
			active:       activeCfg("P"),
			wantState:    StateNoModels,
			wantLabel:    "P: No Models",
		},
		{
			name:         "healthy",
			registrySize: 1,
			active:       activeCfg("P"),
			models:       someModels(),
			wantState:    StateHealthy,
			wantLabel:    "Active: P",
		},
		{
			name:         "disabled status falls through to unknown",
			registrySize: 1,
			active:       &model.ProviderConfig{Name: "P", Status: model.StatusDisabled},
			wantState:    StateUnknown,
			wantLabel:    "P: Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.registrySize, tt.active, tt.models)
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}

func TestStatusRecordsListingFailure(t *testing.T) {
	ctx := context.Background()
	m := New(nil)
	a := newFake("A", "a1")
	m.Register("a", a)
	require.NoError(t, m.SetActive("a", "a1"))
	require.NoError(t, a.Initialize(ctx))

	a.modelsErr = errors.New("401 unauthorized")
	got := m.Status(ctx)

	assert.Equal(t, StateAuthFailed, got.State)
	assert.Equal(t, model.StatusError, a.cfg.Status)
}

func TestStatusSetupNeededNotMaskedByListingFailure(t *testing.T) {
	ctx := context.Background()
	m := New(nil)
	a := newFake("A")
	a.modelsErr = errors.New("not initialized")
	m.Register("a", a)
	require.NoError(t, m.SetActive("a", ""))

	got := m.Status(ctx)
	assert.Equal(t, StateSetupNeeded, got.State)
}

func TestStatusEmptyRegistry(t *testing.T) {
	m := New(nil)
	got := m.Status(context.Background())
	assert.Equal(t, StateCritical, got.State)
}
