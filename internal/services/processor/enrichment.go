package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
)

const (
	analyzeTextCap = 4000
	helperTextCap  = 3000
)

// defaultCategories is the closed category set the analysis prompt offers
var defaultCategories = []string{
	"AI Research", "Product Launch", "Funding/Investment", "Partnership",
	"Regulation/Policy", "Technical", "Business", "Opinion",
}

// Analysis is the structured enrichment a model produces for one item
type Analysis struct {
	Summary         string          `json:"summary"`
	Categories      []string        `json:"categories"`
	Entities        models.Entities `json:"entities"`
	Sentiment       string          `json:"sentiment"`
	RelevanceScore  float64         `json:"relevance_score"`
	ImportanceScore float64         `json:"importance_score"`
	KeyTopics       []string        `json:"key_topics"`
}

// Enricher runs AI analysis over collected content. Enrichment never fails
// an item: when every provider is down or the response is unusable, the
// item gets a neutral default so the pipeline keeps moving.
type Enricher struct {
	orchestrator interfaces.Orchestrator
	logger       arbor.ILogger
}

// NewEnricher creates an enrichment processor
func NewEnricher(orchestrator interfaces.Orchestrator) *Enricher {
	return &Enricher{
		orchestrator: orchestrator,
		logger:       common.GetLogger().WithPrefix("processor"),
	}
}

// Enrich analyzes the content and writes the results onto it, marking it
// processed. The returned Analysis is the applied one, default-neutral
// included.
func (e *Enricher) Enrich(ctx context.Context, content *models.Content) *Analysis {
	text := content.Title
	if content.Body != "" {
		text = content.Title + "\n\n" + content.Body
	}

	analysis, err := e.analyze(ctx, text)
	if err != nil {
		e.logger.Error().
			Str("content_id", content.ID).
			Err(err).
			Msg("Analysis failed, applying neutral defaults")
		analysis = defaultAnalysis()
	} else {
		e.logger.Info().
			Str("content_id", content.ID).
			Strs("categories", analysis.Categories).
			Float64("importance", analysis.ImportanceScore).
			Msg("Content enriched")
	}

	now := time.Now()
	content.Summary = analysis.Summary
	content.Categories = analysis.Categories
	content.Entities = analysis.Entities
	content.Sentiment = analysis.Sentiment
	content.RelevanceScore = &analysis.RelevanceScore
	content.ImportanceScore = &analysis.ImportanceScore
	content.KeyTopics = analysis.KeyTopics
	content.Status = models.ContentStatusProcessed
	content.ProcessedAt = &now

	return analysis
}

func (e *Enricher) analyze(ctx context.Context, text string) (*Analysis, error) {
	if len(text) > analyzeTextCap {
		text = text[:analyzeTextCap]
	}

	prompt := fmt.Sprintf(`Analyze the following content and provide a structured analysis.

Content:
%s

Provide your analysis as a JSON object with these fields:
1. "summary": A 2-3 sentence summary of the key points
2. "categories": Array of relevant categories from: ["%s"]
3. "entities": Object with:
   - "companies": Array of company names mentioned
   - "people": Array of people mentioned
   - "technologies": Array of technologies/products mentioned
4. "sentiment": One of "positive", "negative", "neutral"
5. "relevance_score": Float 0-1, how relevant this is to AI/tech industry
6. "importance_score": Float 0-1, how significant/impactful this news is
7. "key_topics": Array of main topics (e.g., "LLM", "Robotics", "Autonomous Vehicles")

Return ONLY valid JSON, no explanation or markdown.`, text, strings.Join(defaultCategories, `", "`))

	resp, err := e.orchestrator.Request(ctx, interfaces.TaskTypeAnalyze, &interfaces.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(common.ExtractJSONObject(resp.Text)), &analysis); err != nil {
		return nil, fmt.Errorf("parsing analysis response: %w", err)
	}

	return normalize(&analysis), nil
}

// normalize clamps scores and fills missing fields with neutral values
func normalize(a *Analysis) *Analysis {
	a.RelevanceScore = models.ClampScore(a.RelevanceScore)
	a.ImportanceScore = models.ClampScore(a.ImportanceScore)

	switch a.Sentiment {
	case "positive", "negative", "neutral":
	default:
		a.Sentiment = "neutral"
	}

	if a.Categories == nil {
		a.Categories = []string{}
	}
	if a.KeyTopics == nil {
		a.KeyTopics = []string{}
	}
	return a
}

func defaultAnalysis() *Analysis {
	return &Analysis{
		Categories:      []string{},
		Sentiment:       "neutral",
		RelevanceScore:  0.5,
		ImportanceScore: 0.5,
		KeyTopics:       []string{},
	}
}

// Summarize produces a short free-text summary capped at maxLength characters
func (e *Enricher) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = 200
	}
	if len(text) > helperTextCap {
		text = text[:helperTextCap]
	}

	prompt := fmt.Sprintf(`Summarize the following in %d characters or less.
Be concise and capture the key point.

Text:
%s

Summary:`, maxLength, text)

	resp, err := e.orchestrator.Request(ctx, interfaces.TaskTypeSummarize, &interfaces.CompletionRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// ExtractEntities pulls named entities from free text. Parse failures
// return empty entity sets rather than an error.
func (e *Enricher) ExtractEntities(ctx context.Context, text string) (*models.Entities, error) {
	if len(text) > helperTextCap {
		text = text[:helperTextCap]
	}

	prompt := fmt.Sprintf(`Extract named entities from the following text.

Text:
%s

Return as JSON with keys: "companies", "people", "technologies"
Only return valid JSON.`, text)

	resp, err := e.orchestrator.Request(ctx, interfaces.TaskTypeExtract, &interfaces.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	var entities models.Entities
	if err := json.Unmarshal([]byte(common.ExtractJSONObject(resp.Text)), &entities); err != nil {
		return &models.Entities{}, nil
	}
	return &entities, nil
}

// Classify assigns the text to zero or more of the given categories
func (e *Enricher) Classify(ctx context.Context, text string, categories []string) ([]string, error) {
	if len(text) > helperTextCap {
		text = text[:helperTextCap]
	}

	prompt := fmt.Sprintf(`Classify the following text into one or more of these categories:
%s

Text:
%s

Return only the matching category names as a JSON array.`, strings.Join(categories, ", "), text)

	resp, err := e.orchestrator.Request(ctx, interfaces.TaskTypeClassify, &interfaces.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	var matched []string
	if err := json.Unmarshal([]byte(common.ExtractJSONArray(resp.Text)), &matched); err != nil {
		return []string{}, nil
	}
	return matched, nil
}
