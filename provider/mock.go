package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kichat/model"
)

func init() {
	Register("mock", NewMockProvider)
}

// mockChunkSize controls how the mock splits its echo response.
const mockChunkSize = 16

// MockProvider is a deterministic provider with no network dependency.
// It ships alongside the real integrations (the original app exposed it as
// a regular plugin) and is what the test suites register.
//
// Behavior is steered through settings:
//   - "fail_init": non-empty value becomes the recorded InitError
//   - "fail_models": non-empty value becomes the Models error
//   - "models": comma-separated model ids overriding the default three
type MockProvider struct {
	cfg         *model.ProviderConfig
	settings    Settings
	initialized bool
}

// NewMockProvider creates an uninitialized mock provider.
func NewMockProvider(cfg *model.ProviderConfig, settings Settings) model.Provider {
	return &MockProvider{cfg: cfg, settings: settings}
}

// Initialize implements model.Provider.Initialize.
func (p *MockProvider) Initialize(ctx context.Context) error {
	p.initialized = false

	if msg := p.settings.Get("fail_init"); msg != "" {
		err := errors.New(msg)
		p.cfg.SetInitError(err)
		return err
	}

	p.initialized = true
	p.cfg.SetInitError(nil)
	return nil
}

// CheckHealth implements model.Provider.CheckHealth.
func (p *MockProvider) CheckHealth() bool {
	return p.initialized
}

// Models implements model.Provider.Models.
func (p *MockProvider) Models(ctx context.Context) ([]model.ModelInfo, error) {
	if p.cfg.InitError != nil || !p.initialized {
		return nil, fmt.Errorf("mock provider not initialized")
	}
	if msg := p.settings.Get("fail_models"); msg != "" {
		return nil, errors.New(msg)
	}

	ids := []string{"mock-small", "mock-medium", "mock-large"}
	if override := p.settings.Get("models"); override != "" {
		ids = strings.Split(override, ",")
	}

	result := make([]model.ModelInfo, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		result = append(result, model.ModelInfo{
			ID:                id,
			Name:              id,
			Provider:          p.cfg.Name,
			ContextLength:     4096,
			SupportsStreaming: true,
		})
	}

	return result, nil
}

// StreamChat implements model.Provider.StreamChat by echoing the last user
// message in fixed-size chunks.
func (p *MockProvider) StreamChat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	if !p.initialized {
		return fmt.Errorf("mock provider not initialized")
	}

	var lastUser string
	for _, m := range req.Messages {
		if m.Role == model.RoleUser {
			lastUser = m.Content
		}
	}

	response := []rune("echo: " + lastUser)
	for start := 0; start < len(response); start += mockChunkSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := start + mockChunkSize
		if end > len(response) {
			end = len(response)
		}
		if err := callback(string(response[start:end])); err != nil {
			return err
		}
	}

	return nil
}

// Config implements model.Provider.Config.
func (p *MockProvider) Config() *model.ProviderConfig {
	return p.cfg
}
