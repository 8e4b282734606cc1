package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-20250514"
	defaultClaudeMaxTokens = 4096
)

// ClaudeProvider implements the Provider interface using the Anthropic API
type ClaudeProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	apiKey      string
	logger      arbor.ILogger
}

// NewClaudeProvider creates a Claude provider from configuration
func NewClaudeProvider(cfg *common.ClaudeConfig, logger arbor.ILogger) *ClaudeProvider {
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	logger.Debug().
		Str("model", model).
		Int("max_tokens", maxTokens).
		Bool("configured", cfg.APIKey != "").
		Msg("Claude provider initialized")

	return &ClaudeProvider{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: float64(cfg.Temperature),
		apiKey:      cfg.APIKey,
		logger:      logger,
	}
}

func (p *ClaudeProvider) Name() string { return "anthropic" }

func (p *ClaudeProvider) Available() bool { return p.apiKey != "" }

// Complete sends a single-prompt message request
func (p *ClaudeProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	if !p.Available() {
		return nil, fmt.Errorf("anthropic provider is not configured")
	}

	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	temperature := p.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic completion failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("anthropic returned empty response")
	}

	return &interfaces.CompletionResponse{
		Text:     text.String(),
		Provider: p.Name(),
		Model:    p.model,
	}, nil
}
