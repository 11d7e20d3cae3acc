package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"kichat/model"
)

const defaultOllamaHost = "http://localhost:11434"

// ollamaContextLength is used for listing; the tags endpoint reports model
// size but not context windows.
const ollamaContextLength = 8192

func init() {
	Register("ollama", NewOllamaProvider)
}

// OllamaProvider implements model.Provider for a local Ollama server.
// No credential is involved; an unreachable server surfaces through the
// Models honesty check.
type OllamaProvider struct {
	cfg      *model.ProviderConfig
	settings Settings
	client   *api.Client
}

// NewOllamaProvider creates an uninitialized Ollama provider.
func NewOllamaProvider(cfg *model.ProviderConfig, settings Settings) model.Provider {
	return &OllamaProvider{cfg: cfg, settings: settings}
}

// Initialize implements model.Provider.Initialize.
func (p *OllamaProvider) Initialize(ctx context.Context) error {
	p.client = nil

	host := p.settings.GetEnv("host", "OLLAMA_HOST")
	if host == "" {
		host = defaultOllamaHost
	}

	parsed, err := url.Parse(host)
	if err != nil {
		err = fmt.Errorf("invalid Ollama URL %q: %w", host, err)
		p.cfg.SetInitError(err)
		return err
	}

	p.client = api.NewClient(parsed, http.DefaultClient)
	p.cfg.SetInitError(nil)
	return nil
}

// CheckHealth implements model.Provider.CheckHealth.
func (p *OllamaProvider) CheckHealth() bool {
	return p.client != nil
}

// Models implements model.Provider.Models by listing the server's local
// tags. A stopped server fails here, which is exactly what the status
// cascade wants to see.
func (p *OllamaProvider) Models(ctx context.Context) ([]model.ModelInfo, error) {
	if p.cfg.InitError != nil || p.client == nil {
		return nil, fmt.Errorf("ollama provider not initialized")
	}

	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list Ollama models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		result = append(result, model.ModelInfo{
			ID:                m.Name,
			Name:              m.Name,
			Provider:          p.cfg.Name,
			ContextLength:     ollamaContextLength,
			SupportsStreaming: true,
		})
	}

	return result, nil
}

// StreamChat implements model.Provider.StreamChat. Ollama accepts system
// messages inline, so the turn sequence is passed through unchanged.
func (p *OllamaProvider) StreamChat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	if p.client == nil {
		return fmt.Errorf("ollama provider not initialized")
	}

	messages := make([]api.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = api.Message{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	options := make(map[string]any)
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	stream := true
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Options:  options,
		Stream:   &stream,
	}

	return p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		return callback(resp.Message.Content)
	})
}

// Config implements model.Provider.Config.
func (p *OllamaProvider) Config() *model.ProviderConfig {
	return p.cfg
}
