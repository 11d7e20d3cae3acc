// Package manager holds the orchestration core: the registry of
// initialized providers, the single globally active provider+model pair,
// and the status reconciliation consumed by the presentation layer.
package manager

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"kichat/model"
)

// SelectionStore persists the active provider/model pair across restarts.
type SelectionStore interface {
	SaveSelection(providerID, modelID string) error
	LoadSelection() (providerID, modelID string, err error)
}

// Manager owns the provider registry and the active selection. All
// methods are safe for concurrent use; any sequence spanning a network
// call re-validates the active identity after resuming, so a later
// provider switch supersedes the result of an in-flight one.
type Manager struct {
	mu             sync.RWMutex
	providers      map[string]model.Provider
	order          []string // registration order, used for default selection
	activeProvider string
	activeModel    string
	staged         string
	switchGen      uint64

	store SelectionStore // optional
}

// New creates an empty manager. store may be nil when selection
// persistence is not wanted (tests).
func New(store SelectionStore) *Manager {
	return &Manager{
		providers: make(map[string]model.Provider),
		store:     store,
	}
}

// Register inserts a provider instance under id. Registering an existing
// id replaces the previous instance (last registration wins) without
// disturbing its position in the discovery order.
func (m *Manager) Register(id string, p model.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.providers[id]; !exists {
		m.order = append(m.order, id)
	}
	m.providers[id] = p
}

// Provider returns the registered instance for id.
func (m *Manager) Provider(id string) (model.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[id]
	return p, ok
}

// Providers returns the registered ids in registration order.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Size returns the number of registered providers.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.providers)
}

// ActiveProvider returns the active provider id and instance. An active
// id that no longer resolves to a registry entry is treated as unset.
func (m *Manager) ActiveProvider() (string, model.Provider) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeLocked()
}

func (m *Manager) activeLocked() (string, model.Provider) {
	if m.activeProvider == "" {
		return "", nil
	}
	p, ok := m.providers[m.activeProvider]
	if !ok {
		return "", nil
	}
	return m.activeProvider, p
}

// ActiveModel returns the active model id, which may be empty.
func (m *Manager) ActiveModel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeModel
}

// SetActive selects a provider/model pair directly (the model-dropdown
// path) and persists the choice.
func (m *Manager) SetActive(providerID, modelID string) error {
	m.mu.Lock()
	if _, ok := m.providers[providerID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("unknown provider %q", providerID)
	}
	m.activeProvider = providerID
	m.activeModel = modelID
	m.mu.Unlock()

	m.persistSelection(providerID, modelID)
	return nil
}

// AvailableModels delegates to the active provider only: non-active
// providers are never polled, so their cost stays zero until they are
// switched to. No active provider yields an empty result, not an error;
// a listing failure from the active provider propagates so the caller
// can record it.
func (m *Manager) AvailableModels(ctx context.Context) ([]model.ModelInfo, error) {
	_, p := m.ActiveProvider()
	if p == nil {
		return nil, nil
	}
	return p.Models(ctx)
}

// Stage records a candidate active provider without committing it.
func (m *Manager) Stage(providerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = providerID
}

// Commit applies the staged provider (or re-applies the current one when
// nothing is staged): the choice is persisted, the provider is
// re-initialized synchronously, and its models are fetched. A listing
// failure is recorded on the provider's config for status reconciliation
// instead of being raised. The previously selected model survives a
// same-provider commit when still present; switching to a different
// provider selects that provider's first model. A commit that was
// superseded by a later one discards its result.
func (m *Manager) Commit(ctx context.Context) error {
	m.mu.Lock()
	target := m.staged
	m.staged = ""
	if target == "" {
		target = m.activeProvider
	}
	if target == "" {
		m.mu.Unlock()
		return fmt.Errorf("no provider staged or active")
	}
	p, ok := m.providers[target]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("unknown provider %q", target)
	}
	prev := m.activeProvider
	prevModel := m.activeModel
	m.activeProvider = target
	m.switchGen++
	gen := m.switchGen
	m.mu.Unlock()

	m.persistSelection(target, prevModel)

	// The active provider is re-initialized and checked before any other
	// bookkeeping so the visible status reflects the provider in use as
	// soon as possible.
	if err := p.Initialize(ctx); err != nil {
		log.Warn().Str("provider", target).Err(err).Msg("provider initialization failed")
	}

	models, err := p.Models(ctx)
	if err != nil {
		p.Config().SetInitError(err)
		models = nil
	}

	m.mu.Lock()
	if m.switchGen != gen {
		m.mu.Unlock()
		return nil // superseded by a later commit
	}
	if target == prev && containsModel(models, prevModel) {
		// settings edit on the already-active provider, model still valid
	} else {
		m.activeModel = firstModelID(models)
	}
	modelID := m.activeModel
	m.mu.Unlock()

	m.persistSelection(target, modelID)
	return nil
}

// StreamChat dispatches a streaming chat to the active provider/model.
func (m *Manager) StreamChat(ctx context.Context, messages []model.Message, temperature float64, maxTokens int64, callback model.StreamCallback) error {
	m.mu.RLock()
	id, p := m.activeLocked()
	modelID := m.activeModel
	m.mu.RUnlock()

	if p == nil {
		return fmt.Errorf("no active provider")
	}
	if modelID == "" {
		return fmt.Errorf("no model selected for provider %q", id)
	}

	return p.StreamChat(ctx, model.ChatRequest{
		Model:       modelID,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, callback)
}

// ModelOption is one selectable entry of the model dropdown.
type ModelOption struct {
	Key   string // "<provider_id>|<model_id>"
	Label string
}

// ModelOptions lists the active provider's models as dropdown entries.
func (m *Manager) ModelOptions(ctx context.Context) ([]ModelOption, error) {
	id, p := m.ActiveProvider()
	if p == nil {
		return nil, nil
	}

	models, err := p.Models(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]ModelOption, 0, len(models))
	for _, info := range models {
		options = append(options, ModelOption{
			Key:   ModelKey(id, info.ID),
			Label: fmt.Sprintf("%s (%s)", info.Name, info.Provider),
		})
	}
	return options, nil
}

// ModelKey builds the composite dropdown key for a provider/model pair.
func ModelKey(providerID, modelID string) string {
	return providerID + "|" + modelID
}

// ParseModelKey splits a composite dropdown key.
func ParseModelKey(key string) (providerID, modelID string, err error) {
	providerID, modelID, found := strings.Cut(key, "|")
	if !found || providerID == "" || modelID == "" {
		return "", "", fmt.Errorf("malformed model key %q", key)
	}
	return providerID, modelID, nil
}

// RestoreSelection loads the persisted provider/model pair and applies it
// when still valid; otherwise it falls back to the first registered
// provider and, after Commit, its first model.
func (m *Manager) RestoreSelection(ctx context.Context) error {
	var savedProvider, savedModel string
	if m.store != nil {
		var err error
		savedProvider, savedModel, err = m.store.LoadSelection()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load persisted selection")
		}
	}

	m.mu.Lock()
	if _, ok := m.providers[savedProvider]; !ok {
		savedProvider = ""
		savedModel = ""
	}
	if savedProvider == "" && len(m.order) > 0 {
		savedProvider = m.order[0]
	}
	if savedProvider == "" {
		m.mu.Unlock()
		return nil // empty registry; status cascade reports critical
	}
	// Adopt the saved pair before committing: Commit then sees a
	// same-provider transition and keeps the saved model when the fresh
	// listing still contains it, falling back to the first model when not.
	m.activeProvider = savedProvider
	m.activeModel = savedModel
	m.mu.Unlock()

	return m.Commit(ctx)
}

func (m *Manager) persistSelection(providerID, modelID string) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveSelection(providerID, modelID); err != nil {
		log.Warn().Err(err).Msg("failed to persist selection")
	}
}

func containsModel(models []model.ModelInfo, id string) bool {
	if id == "" {
		return false
	}
	for _, info := range models {
		if info.ID == id {
			return true
		}
	}
	return false
}

func firstModelID(models []model.ModelInfo) string {
	if len(models) == 0 {
		return ""
	}
	return models[0].ID
}
