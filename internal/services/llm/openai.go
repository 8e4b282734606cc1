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

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider implements the Provider interface against the OpenAI chat API
type OpenAIProvider struct {
	client *openai.Client
	model  string
	apiKey string
	logger arbor.ILogger
}

// NewOpenAIProvider creates an OpenAI provider from configuration. The
// provider is constructed even without an API key; Available reports false
// until one is set.
func NewOpenAIProvider(cfg *common.OpenAIConfig, logger arbor.ILogger) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}

	logger.Debug().
		Str("model", model).
		Bool("configured", cfg.APIKey != "").
		Msg("OpenAI provider initialized")

	return &OpenAIProvider{
		client: client,
		model:  model,
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Available() bool { return p.apiKey != "" }

// Complete sends a single-prompt chat completion request
func (p *OpenAIProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	if !p.Available() {
		return nil, fmt.Errorf("openai provider is not configured")
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
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("openai returned empty response")
	}

	return &interfaces.CompletionResponse{
		Text:     resp.Choices[0].Message.Content,
		Provider: p.Name(),
		Model:    p.model,
	}, nil
}
