package provider

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/genai"
	"kichat/model"
)

func init() {
	Register("google", NewGoogleProvider)
}

// GoogleProvider implements model.Provider for Google Gemini using the
// official google.golang.org/genai SDK.
type GoogleProvider struct {
	cfg      *model.ProviderConfig
	settings Settings
	client   *genai.Client
	apiKey   string
}

// NewGoogleProvider creates an uninitialized Gemini provider.
func NewGoogleProvider(cfg *model.ProviderConfig, settings Settings) model.Provider {
	return &GoogleProvider{cfg: cfg, settings: settings}
}

// Initialize implements model.Provider.Initialize. Client construction can
// fail here (unlike the other vendors), so the error is recorded on the
// config and returned for logging.
func (p *GoogleProvider) Initialize(ctx context.Context) error {
	p.client = nil
	p.apiKey = p.settings.GetEnv("api_key", "GOOGLE_API_KEY")

	if p.apiKey == "" {
		p.cfg.InitError = nil
		p.cfg.Status = model.StatusSetupNeeded
		return nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		err = fmt.Errorf("failed to initialize Gemini client: %w", err)
		p.cfg.SetInitError(err)
		return err
	}

	p.client = client
	p.cfg.SetInitError(nil)
	return nil
}

// CheckHealth implements model.Provider.CheckHealth.
func (p *GoogleProvider) CheckHealth() bool {
	return p.client != nil && p.apiKey != ""
}

// Models implements model.Provider.Models. Only models that support
// generateContent are listed; the reported input token limit becomes the
// context length.
func (p *GoogleProvider) Models(ctx context.Context) ([]model.ModelInfo, error) {
	if p.cfg.InitError != nil || p.client == nil {
		return nil, fmt.Errorf("google provider not initialized")
	}

	var result []model.ModelInfo
	for m, err := range p.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list Gemini models: %w", err)
		}
		if !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}

		id := strings.TrimPrefix(m.Name, "models/")
		name := m.DisplayName
		if name == "" {
			name = id
		}
		result = append(result, model.ModelInfo{
			ID:                id,
			Name:              name,
			Provider:          p.cfg.Name,
			ContextLength:     int(m.InputTokenLimit),
			SupportsStreaming: true,
		})
	}

	return result, nil
}

// StreamChat implements model.Provider.StreamChat. System messages are
// hoisted into the request's system instruction; Gemini only accepts
// user/model roles in the content list.
func (p *GoogleProvider) StreamChat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	if p.client == nil {
		return fmt.Errorf("google provider not initialized")
	}

	system, rest := SplitSystemPrompt(req.Messages)

	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		role := genai.RoleUser
		if m.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	config := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	for resp, err := range p.client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
		if err != nil {
			return fmt.Errorf("gemini streaming error: %w", err)
		}
		if text := resp.Text(); text != "" {
			if err := callback(text); err != nil {
				return err
			}
		}
	}

	return nil
}

// Config implements model.Provider.Config.
func (p *GoogleProvider) Config() *model.ProviderConfig {
	return p.cfg
}
