package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"kichat/model"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com"

// anthropicContextLength is used for listing; the models endpoint does not
// report context windows and current Claude models share this one.
const anthropicContextLength = 200000

func init() {
	Register("anthropic", NewAnthropicProvider)
}

// AnthropicProvider implements model.Provider using Anthropic's official
// Go SDK.
type AnthropicProvider struct {
	cfg      *model.ProviderConfig
	settings Settings
	client   *anthropic.Client
	apiKey   string
}

// NewAnthropicProvider creates an uninitialized Anthropic provider.
func NewAnthropicProvider(cfg *model.ProviderConfig, settings Settings) model.Provider {
	return &AnthropicProvider{cfg: cfg, settings: settings}
}

// Initialize implements model.Provider.Initialize.
func (p *AnthropicProvider) Initialize(ctx context.Context) error {
	p.client = nil
	p.apiKey = p.settings.GetEnv("api_key", "ANTHROPIC_API_KEY")

	if p.apiKey == "" {
		p.cfg.InitError = nil
		p.cfg.Status = model.StatusSetupNeeded
		return nil
	}

	client := anthropic.NewClient(
		option.WithBaseURL(p.settings.GetDefault("base_url", defaultAnthropicBaseURL)),
		option.WithAPIKey(p.apiKey),
	)
	p.client = &client
	p.cfg.SetInitError(nil)
	return nil
}

// CheckHealth implements model.Provider.CheckHealth.
func (p *AnthropicProvider) CheckHealth() bool {
	return p.client != nil && p.apiKey != ""
}

// Models implements model.Provider.Models via the live models endpoint,
// which doubles as key validation.
func (p *AnthropicProvider) Models(ctx context.Context) ([]model.ModelInfo, error) {
	if p.cfg.InitError != nil || p.client == nil {
		return nil, fmt.Errorf("anthropic provider not initialized")
	}

	page, err := p.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to list Anthropic models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		name := m.DisplayName
		if name == "" {
			name = m.ID
		}
		result = append(result, model.ModelInfo{
			ID:                m.ID,
			Name:              name,
			Provider:          p.cfg.Name,
			ContextLength:     anthropicContextLength,
			SupportsStreaming: true,
		})
	}

	return result, nil
}

// StreamChat implements model.Provider.StreamChat. System messages are
// hoisted into the request's system blocks; the messages array only takes
// user/assistant turns.
func (p *AnthropicProvider) StreamChat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	if p.client == nil {
		return fmt.Errorf("anthropic provider not initialized")
	}

	system, rest := SplitSystemPrompt(req.Messages)

	msgs := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		switch m.Role {
		case model.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096 // required by the API
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if err := callback(delta.Text); err != nil {
					return err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic streaming error: %w", err)
	}

	return nil
}

// Config implements model.Provider.Config.
func (p *AnthropicProvider) Config() *model.ProviderConfig {
	return p.cfg
}
