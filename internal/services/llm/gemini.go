package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements the Provider interface using the Google Gemini API
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float64
	apiKey      string
	logger      arbor.ILogger
}

// NewGeminiProvider creates a Gemini provider from configuration. Client
// construction is deferred until the first call when no key is configured.
func NewGeminiProvider(cfg *common.GeminiConfig, logger arbor.ILogger) (*GeminiProvider, error) {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	p := &GeminiProvider{
		model:       model,
		temperature: float64(cfg.Temperature),
		apiKey:      cfg.APIKey,
		logger:      logger,
	}

	if cfg.APIKey != "" {
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		p.client = client
	}

	logger.Debug().
		Str("model", model).
		Bool("configured", cfg.APIKey != "").
		Msg("Gemini provider initialized")

	return p, nil
}

func (p *GeminiProvider) Name() string { return "google" }

func (p *GeminiProvider) Available() bool { return p.apiKey != "" && p.client != nil }

// Complete sends a single-prompt generation request
func (p *GeminiProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	if !p.Available() {
		return nil, fmt.Errorf("google provider is not configured")
	}

	config := &genai.GenerateContentConfig{}

	temperature := p.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		config.Temperature = genai.Ptr(float32(temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini completion failed: %w", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("gemini returned empty response")
	}

	return &interfaces.CompletionResponse{
		Text:     text.String(),
		Provider: p.Name(),
		Model:    p.model,
	}, nil
}
