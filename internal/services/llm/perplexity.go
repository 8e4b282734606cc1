package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
)

const (
	defaultPerplexityModel   = "sonar-pro"
	defaultPerplexityBaseURL = "https://api.perplexity.ai"
)

// PerplexityProvider implements the Provider interface against the
// Perplexity API, which speaks the OpenAI chat wire format.
type PerplexityProvider struct {
	client *openai.Client
	model  string
	apiKey string
	logger arbor.ILogger
}

// NewPerplexityProvider creates a Perplexity provider from configuration
func NewPerplexityProvider(cfg *common.PerplexityConfig, logger arbor.ILogger) *PerplexityProvider {
	model := cfg.Model
	if model == "" {
		model = defaultPerplexityModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPerplexityBaseURL
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = baseURL
		client = openai.NewClientWithConfig(clientConfig)
	}

	logger.Debug().
		Str("model", model).
		Str("base_url", baseURL).
		Bool("configured", cfg.APIKey != "").
		Msg("Perplexity provider initialized")

	return &PerplexityProvider{
		client: client,
		model:  model,
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

func (p *PerplexityProvider) Name() string { return "perplexity" }

func (p *PerplexityProvider) Available() bool { return p.apiKey != "" }

// Complete sends a single-prompt chat completion request
func (p *PerplexityProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	if !p.Available() {
		return nil, fmt.Errorf("perplexity provider is not configured")
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("perplexity completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("perplexity returned empty response")
	}

	return &interfaces.CompletionResponse{
		Text:     resp.Choices[0].Message.Content,
		Provider: p.Name(),
		Model:    p.model,
	}, nil
}
