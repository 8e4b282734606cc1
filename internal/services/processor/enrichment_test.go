package processor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
)

type fakeOrchestrator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeOrchestrator) Request(ctx context.Context, task interfaces.TaskType, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.CompletionResponse{Text: f.response, Provider: "fake", Model: "fake"}, nil
}

func (f *fakeOrchestrator) RequestParallel(ctx context.Context, req *interfaces.CompletionRequest, providers ...string) []*interfaces.CompletionResponse {
	resp, err := f.Request(ctx, interfaces.TaskTypeAnalyze, req)
	if err != nil {
		return nil
	}
	return []*interfaces.CompletionResponse{resp}
}

func (f *fakeOrchestrator) Collaborate(ctx context.Context, initialPrompt string, steps []interfaces.CollaborationStep, req *interfaces.CompletionRequest) ([]*interfaces.CompletionResponse, error) {
	resp, err := f.Request(ctx, interfaces.TaskTypeAnalyze, &interfaces.CompletionRequest{Prompt: initialPrompt})
	if err != nil {
		return nil, err
	}
	return []*interfaces.CompletionResponse{resp}, nil
}

func (f *fakeOrchestrator) AvailableProviders() []string { return []string{"fake"} }

func TestEnrich_AppliesAnalysis(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		response: `{
			"summary": "A major model release.",
			"categories": ["AI Research", "Product Launch"],
			"entities": {"companies": ["OpenAI"], "people": [], "technologies": ["GPT-5"]},
			"sentiment": "positive",
			"relevance_score": 0.95,
			"importance_score": 0.85,
			"key_topics": ["LLM"]
		}`,
	}

	content := models.NewContent("src-1", "https://example.com/a", "Model released", "Body text")
	analysis := NewEnricher(orchestrator).Enrich(context.Background(), content)

	assert.Equal(t, "A major model release.", content.Summary)
	assert.Equal(t, []string{"AI Research", "Product Launch"}, content.Categories)
	assert.Equal(t, []string{"OpenAI"}, content.Entities.Companies)
	assert.Equal(t, "positive", content.Sentiment)
	require.NotNil(t, content.RelevanceScore)
	assert.Equal(t, 0.95, *content.RelevanceScore)
	require.NotNil(t, content.ImportanceScore)
	assert.Equal(t, 0.85, *content.ImportanceScore)
	assert.Equal(t, models.ContentStatusProcessed, content.Status)
	require.NotNil(t, content.ProcessedAt)
	assert.Equal(t, analysis.Summary, content.Summary)
}

func TestEnrich_ClampsOutOfRangeScores(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		response: `{"summary": "s", "sentiment": "neutral", "relevance_score": 1.7, "importance_score": -0.3}`,
	}

	content := models.NewContent("src-1", "https://example.com/a", "Title", "")
	NewEnricher(orchestrator).Enrich(context.Background(), content)

	assert.Equal(t, 1.0, *content.RelevanceScore)
	assert.Equal(t, 0.0, *content.ImportanceScore)
}

func TestEnrich_DefaultNeutralOnProviderFailure(t *testing.T) {
	orchestrator := &fakeOrchestrator{err: fmt.Errorf("all providers failed")}

	content := models.NewContent("src-1", "https://example.com/a", "Title", "Body")
	analysis := NewEnricher(orchestrator).Enrich(context.Background(), content)

	assert.Equal(t, "neutral", content.Sentiment)
	assert.Equal(t, 0.5, *content.RelevanceScore)
	assert.Equal(t, 0.5, *content.ImportanceScore)
	assert.Empty(t, content.Summary)
	assert.Equal(t, models.ContentStatusProcessed, content.Status, "failed enrichment still advances the item")
	assert.Equal(t, 0.5, analysis.ImportanceScore)
}

func TestEnrich_DefaultNeutralOnUnparseableResponse(t *testing.T) {
	orchestrator := &fakeOrchestrator{response: "I could not analyze this content."}

	content := models.NewContent("src-1", "https://example.com/a", "Title", "")
	NewEnricher(orchestrator).Enrich(context.Background(), content)

	assert.Equal(t, "neutral", content.Sentiment)
	assert.Equal(t, 0.5, *content.RelevanceScore)
}

func TestEnrich_RescuesJSONFromProse(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		response: "Here is the analysis:\n{\"summary\": \"rescued\", \"sentiment\": \"negative\", \"relevance_score\": 0.6, \"importance_score\": 0.4}\nHope that helps!",
	}

	content := models.NewContent("src-1", "https://example.com/a", "Title", "")
	NewEnricher(orchestrator).Enrich(context.Background(), content)

	assert.Equal(t, "rescued", content.Summary)
	assert.Equal(t, "negative", content.Sentiment)
}

func TestEnrich_InvalidSentimentNormalizedToNeutral(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		response: `{"summary": "s", "sentiment": "ecstatic", "relevance_score": 0.5, "importance_score": 0.5}`,
	}

	content := models.NewContent("src-1", "https://example.com/a", "Title", "")
	NewEnricher(orchestrator).Enrich(context.Background(), content)

	assert.Equal(t, "neutral", content.Sentiment)
}

func TestEnrich_TruncatesLongContent(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		response: `{"summary": "s", "sentiment": "neutral", "relevance_score": 0.5, "importance_score": 0.5}`,
	}

	longBody := make([]byte, 10000)
	for i := range longBody {
		longBody[i] = 'x'
	}
	content := models.NewContent("src-1", "https://example.com/a", "Title", string(longBody))
	NewEnricher(orchestrator).Enrich(context.Background(), content)

	require.Len(t, orchestrator.prompts, 1)
	assert.Less(t, len(orchestrator.prompts[0]), 6000, "content is truncated before prompting")
}

func TestSummarize(t *testing.T) {
	orchestrator := &fakeOrchestrator{response: "  A short summary.  "}

	summary, err := NewEnricher(orchestrator).Summarize(context.Background(), "long text", 100)
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", summary)
}

func TestExtractEntities(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		response: `{"companies": ["NVIDIA"], "people": ["Jensen Huang"], "technologies": ["CUDA"]}`,
	}

	entities, err := NewEnricher(orchestrator).ExtractEntities(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []string{"NVIDIA"}, entities.Companies)
	assert.Equal(t, []string{"Jensen Huang"}, entities.People)
}

func TestClassify(t *testing.T) {
	orchestrator := &fakeOrchestrator{response: `["Technical", "Business"]`}

	categories, err := NewEnricher(orchestrator).Classify(context.Background(), "text", []string{"Technical", "Business", "Opinion"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Technical", "Business"}, categories)
}
