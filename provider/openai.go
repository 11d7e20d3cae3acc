package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"kichat/model"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIContextLength is used for listing; the models endpoint does not
// report context windows.
const openAIContextLength = 128000

func init() {
	Register("openai", NewOpenAIProvider)
}

// OpenAIProvider implements model.Provider using OpenAI's official Go SDK.
type OpenAIProvider struct {
	cfg      *model.ProviderConfig
	settings Settings
	client   *openai.Client
	apiKey   string
}

// NewOpenAIProvider creates an uninitialized OpenAI provider.
func NewOpenAIProvider(cfg *model.ProviderConfig, settings Settings) model.Provider {
	return &OpenAIProvider{cfg: cfg, settings: settings}
}

// Initialize implements model.Provider.Initialize. Re-running after a
// credential change rebuilds the client from scratch.
func (p *OpenAIProvider) Initialize(ctx context.Context) error {
	p.client = nil
	p.apiKey = p.settings.GetEnv("api_key", "OPENAI_API_KEY")

	if p.apiKey == "" {
		p.cfg.InitError = nil
		p.cfg.Status = model.StatusSetupNeeded
		return nil
	}

	client := openai.NewClient(
		option.WithBaseURL(p.settings.GetDefault("base_url", defaultOpenAIBaseURL)),
		option.WithAPIKey(p.apiKey),
	)
	p.client = &client
	p.cfg.SetInitError(nil)
	return nil
}

// CheckHealth implements model.Provider.CheckHealth.
func (p *OpenAIProvider) CheckHealth() bool {
	return p.client != nil && p.apiKey != ""
}

// Models implements model.Provider.Models by querying the live models
// endpoint, so an invalid key surfaces here instead of at chat time.
func (p *OpenAIProvider) Models(ctx context.Context) ([]model.ModelInfo, error) {
	if p.cfg.InitError != nil || p.client == nil {
		return nil, fmt.Errorf("openai provider not initialized")
	}

	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenAI models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, model.ModelInfo{
			ID:                m.ID,
			Name:              m.ID,
			Provider:          p.cfg.Name,
			ContextLength:     openAIContextLength,
			SupportsStreaming: true,
		})
	}

	return result, nil
}

// StreamChat implements model.Provider.StreamChat. System messages stay in
// the turn sequence; the chat completions API accepts them inline.
func (p *OpenAIProvider) StreamChat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	if p.client == nil {
		return fmt.Errorf("openai provider not initialized")
	}

	params := openai.ChatCompletionNewParams{
		Messages: toOpenAIMessages(req.Messages),
		Model:    openai.ChatModel(req.Model),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := callback(chunk.Choices[0].Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai streaming error: %w", err)
	}

	return nil
}

// Config implements model.Provider.Config.
func (p *OpenAIProvider) Config() *model.ProviderConfig {
	return p.cfg
}

// toOpenAIMessages converts kichat messages to the chat completions union
// type. Unknown roles default to user.
func toOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openai.SystemMessage(msg.Content)
		case model.RoleAssistant:
			result[i] = openai.AssistantMessage(msg.Content)
		default:
			result[i] = openai.UserMessage(msg.Content)
		}
	}
	return result
}
