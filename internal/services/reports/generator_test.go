package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
	badgerstore "github.com/argusintel/argus/internal/storage/badger"
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

func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	m, err := badgerstore.NewManager(common.GetLogger().WithPrefix("reports-test"), &common.BadgerConfig{
		Path: t.TempDir() + "/badger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func seedProcessed(t *testing.T, m interfaces.StorageManager, title string, importance float64) *models.Content {
	t.Helper()
	ctx := context.Background()

	item := models.NewContent("src-1", "https://example.com/"+title, title, "body")
	item.Status = models.ContentStatusProcessed
	item.Summary = "summary of " + title
	item.ImportanceScore = &importance
	now := time.Now()
	item.ProcessedAt = &now

	inserted, err := m.Content().SaveIfNew(ctx, item)
	require.NoError(t, err)
	require.True(t, inserted)
	return item
}

func TestGenerateDaily_Envelope(t *testing.T) {
	m := newTestStorage(t)
	seedProcessed(t, m, "big-story", 0.9)
	seedProcessed(t, m, "small-story", 0.3)

	orchestrator := &fakeOrchestrator{response: `{"headline": "A big day", "top_stories": []}`}
	g := NewGenerator(m.Content(), m.Reports(), orchestrator)

	report, err := g.GenerateDaily(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ReportKindDaily, report.Kind)
	assert.Equal(t, 2, report.ContentCount)
	assert.Equal(t, "A big day", report.Body["headline"])
	require.Len(t, report.Sources, 2)
	assert.Equal(t, "big-story", report.Sources[0].Title, "sources are ordered by importance")
	assert.WithinDuration(t, time.Now(), report.GeneratedAt, time.Minute)

	// envelope is persisted
	stored, err := m.Reports().GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ContentCount, stored.ContentCount)
}

func TestGenerate_EmptyPeriodSkipsModel(t *testing.T) {
	m := newTestStorage(t)
	orchestrator := &fakeOrchestrator{response: `{}`}
	g := NewGenerator(m.Content(), m.Reports(), orchestrator)

	report, err := g.GenerateDaily(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.ContentCount)
	assert.Empty(t, orchestrator.prompts, "no model call for an empty window")
	assert.Contains(t, report.Body["message"], "No content available")
}

func TestGenerate_UnprocessedItemsExcluded(t *testing.T) {
	m := newTestStorage(t)

	raw := models.NewContent("src-1", "https://example.com/raw", "unprocessed", "")
	_, err := m.Content().SaveIfNew(context.Background(), raw)
	require.NoError(t, err)

	orchestrator := &fakeOrchestrator{response: `{}`}
	g := NewGenerator(m.Content(), m.Reports(), orchestrator)

	report, err := g.GenerateDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.ContentCount)
}

func TestGenerate_RawAnalysisFallback(t *testing.T) {
	m := newTestStorage(t)
	seedProcessed(t, m, "story", 0.8)

	orchestrator := &fakeOrchestrator{response: "The week was dominated by model releases."}
	g := NewGenerator(m.Content(), m.Reports(), orchestrator)

	report, err := g.GenerateWeekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "The week was dominated by model releases.", report.Body["raw_analysis"])
}

func TestGenerateCustom_TopicFilter(t *testing.T) {
	m := newTestStorage(t)
	seedProcessed(t, m, "robotics breakthrough", 0.9)
	seedProcessed(t, m, "quantum computing news", 0.8)

	orchestrator := &fakeOrchestrator{response: `{"overview": "robotics"}`}
	g := NewGenerator(m.Content(), m.Reports(), orchestrator)

	report, err := g.GenerateCustom(context.Background(), "robotics", 30)
	require.NoError(t, err)

	assert.Equal(t, models.ReportKindCustom, report.Kind)
	assert.Equal(t, "robotics", report.Topic)
	assert.Equal(t, 1, report.ContentCount)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "robotics breakthrough", report.Sources[0].Title)
}

func TestGenerate_SourceCitationCap(t *testing.T) {
	m := newTestStorage(t)
	for i := 0; i < 15; i++ {
		seedProcessed(t, m, string(rune('a'+i))+"-story", 0.5)
	}

	orchestrator := &fakeOrchestrator{response: `{}`}
	g := NewGenerator(m.Content(), m.Reports(), orchestrator)

	report, err := g.GenerateDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, report.ContentCount)
	assert.Len(t, report.Sources, 10)
}
