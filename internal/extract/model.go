package extract

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	logx "github.com/otrade-bot/server/pkg/logger"
)

// ModelClient is the minimal chat-completion surface the extractor needs.
// Both providers speak eino schema messages so history handling stays
// provider-agnostic.
type ModelClient interface {
	Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
	ModelName() string
}

// ================ Providers ================

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderConfig carries the LLM provider credentials.
type ProviderConfig struct {
	APIKey  string `envconfig:"LLM_API_KEY" required:"true"`
	BaseURL string `envconfig:"LLM_BASE_URL"`
}

// NewModelClient builds the configured provider's client.
func NewModelClient(ctx context.Context, cfg Config, provider ProviderConfig) (ModelClient, error) {
	switch cfg.Provider {
	case ProviderGemini:
		return newGeminiClient(ctx, cfg, provider)
	case ProviderOpenAI:
		return newOpenAIClient(cfg, provider), nil
	default:
		return nil, fmt.Errorf("unknown extractor provider %q", cfg.Provider)
	}
}

// ================ Gemini ================

type geminiClient struct {
	cm    *gemini.ChatModel
	model string
}

func newGeminiClient(ctx context.Context, cfg Config, provider ProviderConfig) (*geminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  provider.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if provider.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = provider.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extractor model")
		return nil, fmt.Errorf("error creating extractor model: %w", err)
	}

	return &geminiClient{cm: cm, model: cfg.Model}, nil
}

func (c *geminiClient) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	return c.cm.Generate(ctx, messages)
}

func (c *geminiClient) ModelName() string { return c.model }

// ================ OpenAI ================

type openaiClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func newOpenAIClient(cfg Config, provider ProviderConfig) *openaiClient {
	occ := openai.DefaultConfig(provider.APIKey)
	if provider.BaseURL != "" {
		occ.BaseURL = provider.BaseURL
	}
	return &openaiClient{
		client:      openai.NewClientWithConfig(occ),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *openaiClient) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	out := schema.AssistantMessage(resp.Choices[0].Message.Content, nil)
	out.ResponseMeta = &schema.ResponseMeta{
		Usage: &schema.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	return out, nil
}

func (c *openaiClient) ModelName() string { return c.model }
