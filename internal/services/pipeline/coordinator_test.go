package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
	"github.com/argusintel/argus/internal/services/crawler"
	"github.com/argusintel/argus/internal/services/matcher"
	"github.com/argusintel/argus/internal/services/notify"
	"github.com/argusintel/argus/internal/services/processor"
	badgerstore "github.com/argusintel/argus/internal/storage/badger"
)

type fakeCrawler struct {
	mu      sync.Mutex
	items   map[string][]*models.Content
	errs    map[string]error
	calls   map[string]int
	inUse   map[string]bool
	overlap atomic.Bool
}

func newFakeCrawler() *fakeCrawler {
	return &fakeCrawler{
		items: make(map[string][]*models.Content),
		errs:  make(map[string]error),
		calls: make(map[string]int),
		inUse: make(map[string]bool),
	}
}

func (f *fakeCrawler) Crawl(ctx context.Context, source *models.Source) ([]*models.Content, error) {
	f.mu.Lock()
	f.calls[source.ID]++
	if f.inUse[source.ID] {
		f.overlap.Store(true)
	}
	f.inUse[source.ID] = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inUse[source.ID] = false
		f.mu.Unlock()
	}()

	if err := f.errs[source.ID]; err != nil {
		return nil, err
	}

	// fresh items per crawl, the way a real parse produces them
	out := make([]*models.Content, 0, len(f.items[source.ID]))
	for _, item := range f.items[source.ID] {
		out = append(out, models.NewContent(source.ID, item.URL, item.Title, item.Body))
	}
	return out, nil
}

func (f *fakeCrawler) callCount(sourceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[sourceID]
}

type fakeOrchestrator struct {
	response string
	err      error
}

func (f *fakeOrchestrator) Request(ctx context.Context, task interfaces.TaskType, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
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

type captureNotifier struct {
	mu       sync.Mutex
	err      error
	contents []*models.Content
}

func (n *captureNotifier) Name() string { return "capture" }

func (n *captureNotifier) Notify(ctx context.Context, content *models.Content) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contents = append(n.contents, content)
	return n.err
}

func (n *captureNotifier) NotifyReport(ctx context.Context, report *models.Report) error {
	return n.err
}

type fixture struct {
	storage     interfaces.StorageManager
	crawler     *fakeCrawler
	coordinator *Coordinator
	notifier    *captureNotifier
}

func newFixture(t *testing.T, analysisJSON string) *fixture {
	t.Helper()

	storage, err := badgerstore.NewManager(common.GetLogger().WithPrefix("pipeline-test"), &common.BadgerConfig{
		Path: t.TempDir() + "/badger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	crawlFake := newFakeCrawler()
	orchestrator := &fakeOrchestrator{response: analysisJSON}
	if analysisJSON == "" {
		orchestrator.err = errors.New("no providers")
	}

	kwMatcher := matcher.New(nil)
	group := models.NewKeywordGroup("Big Tech", "")
	kwMatcher.Load(
		[]*models.KeywordGroup{group},
		[]*models.Keyword{models.NewKeyword(group.ID, "OpenAI", []string{"오픈AI"})},
	)

	captured := &captureNotifier{}
	manager := notify.NewManager(notify.Filter{MinImportance: 0.7}, captured)

	cfg := &common.PipelineConfig{
		Workers:       2,
		MaxRetries:    3,
		RetryDelay:    time.Millisecond,
		EnrichBatch:   100,
		NotifyBatch:   50,
		MinImportance: 0.7,
	}

	return &fixture{
		storage:     storage,
		crawler:     crawlFake,
		notifier:    captured,
		coordinator: NewCoordinator(storage, crawlFake, processor.NewEnricher(orchestrator), kwMatcher, manager, cfg),
	}
}

func (f *fixture) addSource(t *testing.T, name string, items ...*models.Content) *models.Source {
	t.Helper()
	source := models.NewSource(name, "https://"+name+".example.com/feed", models.SourceKindFeed)
	require.NoError(t, f.storage.Sources().StoreSource(context.Background(), source))
	f.crawler.items[source.ID] = items
	return source
}

const richAnalysis = `{
	"summary": "OpenAI shipped a new model.",
	"categories": ["AI Research"],
	"entities": {"companies": ["OpenAI"]},
	"sentiment": "positive",
	"relevance_score": 0.9,
	"importance_score": 0.85,
	"key_topics": ["LLM"]
}`

func TestRunCrawl_CollectsAndDeduplicates(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	source := f.addSource(t, "feed-a",
		models.NewContent("", "https://example.com/1", "Story one", "body"),
		models.NewContent("", "https://example.com/2", "Story two", "body"),
	)

	exec, err := f.coordinator.RunCrawl(ctx, []string{source.ID})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, exec.Status)
	assert.Equal(t, 2, exec.ItemsCollected)
	assert.Equal(t, 2, exec.ItemsSaved)

	// a second crawl finds the same items; the dedup gate rejects them all
	exec, err = f.coordinator.RunCrawl(ctx, []string{source.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, exec.ItemsCollected)
	assert.Equal(t, 0, exec.ItemsSaved)

	count, err := f.storage.Content().CountContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunCrawl_RecordsSourceSuccess(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	source := f.addSource(t, "feed-a", models.NewContent("", "https://example.com/1", "Story", ""))
	source.RecordFailure(time.Now(), "earlier failure")
	require.NoError(t, f.storage.Sources().StoreSource(ctx, source))

	_, err := f.coordinator.RunCrawl(ctx, []string{source.ID})
	require.NoError(t, err)

	got, err := f.storage.Sources().GetSource(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ErrorCount)
	assert.Equal(t, models.SourceStatusActive, got.Status)
	assert.NotNil(t, got.LastCrawledAt)
}

func TestRunCrawl_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	source := f.addSource(t, "flaky")
	f.crawler.errs[source.ID] = errors.New("connection reset")

	exec, err := f.coordinator.RunCrawl(ctx, []string{source.ID})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, exec.Status, "a failing source does not fail the job")
	assert.Equal(t, 3, f.crawler.callCount(source.ID))
	assert.Equal(t, 2, exec.RetryCount, "retries beyond the first attempt are recorded")

	got, err := f.storage.Sources().GetSource(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ErrorCount)
}

func TestRunCrawl_EmptyPageIsNotRetried(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	source := f.addSource(t, "empty")
	f.crawler.errs[source.ID] = crawler.ErrNoItems

	_, err := f.coordinator.RunCrawl(ctx, []string{source.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, f.crawler.callCount(source.ID))
}

func TestRunCrawl_NoOverlappingCrawlsPerSource(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	sources := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		source := f.addSource(t, "feed-"+string(rune('a'+i)),
			models.NewContent("", "https://example.com/"+string(rune('a'+i)), "Story "+string(rune('a'+i)), ""))
		sources = append(sources, source.ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.coordinator.RunCrawl(ctx, sources)
		}()
	}
	wg.Wait()

	assert.False(t, f.crawler.overlap.Load(), "a source must never be crawled by two workers at once")
}

func TestRunEnrich_AppliesAnalysisAndMatches(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	item := models.NewContent("src-1", "https://example.com/1", "OpenAI releases model", "Details about the 오픈AI launch.")
	_, err := f.storage.Content().SaveIfNew(ctx, item)
	require.NoError(t, err)

	processed, err := f.coordinator.RunEnrich(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	got, err := f.storage.Content().GetContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusProcessed, got.Status)
	assert.Equal(t, "OpenAI shipped a new model.", got.Summary)
	require.NotNil(t, got.ImportanceScore)
	assert.InDelta(t, 0.85, *got.ImportanceScore, 0.001)
	assert.Contains(t, got.MatchedKeywords, "OpenAI")
	assert.Contains(t, got.MatchedKeywordGroups, "Big Tech")
}

func TestRunEnrich_ProviderFailureStillAdvancesItem(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	item := models.NewContent("src-1", "https://example.com/1", "Some story", "body")
	_, err := f.storage.Content().SaveIfNew(ctx, item)
	require.NoError(t, err)

	processed, err := f.coordinator.RunEnrich(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	got, err := f.storage.Content().GetContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusProcessed, got.Status)
	assert.Equal(t, "neutral", got.Sentiment)
}

func TestRunNotify_DispatchesQualifyingItems(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	important := models.NewContent("src-1", "https://example.com/1", "Big", "")
	quiet := models.NewContent("src-1", "https://example.com/2", "Small", "")
	for _, item := range []*models.Content{important, quiet} {
		_, err := f.storage.Content().SaveIfNew(ctx, item)
		require.NoError(t, err)
	}

	high, low := 0.9, 0.2
	important.ImportanceScore = &high
	important.Status = models.ContentStatusProcessed
	quiet.ImportanceScore = &low
	quiet.Status = models.ContentStatusProcessed
	require.NoError(t, f.storage.Content().UpdateContent(ctx, important))
	require.NoError(t, f.storage.Content().UpdateContent(ctx, quiet))

	notified, err := f.coordinator.RunNotify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
	require.Len(t, f.notifier.contents, 1)
	assert.Equal(t, important.ID, f.notifier.contents[0].ID)

	got, err := f.storage.Content().GetContent(ctx, important.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusNotified, got.Status)

	// below-threshold items stay processed for report generation
	got, err = f.storage.Content().GetContent(ctx, quiet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusProcessed, got.Status)
}

func TestRunNotify_SubThresholdBacklogDoesNotStarveBatch(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	// fill a full notify batch with older processed items that will never
	// qualify; they stay processed forever (report material)
	low := 0.2
	backlogTime := time.Now().Add(-2 * time.Hour)
	for i := 0; i < 50; i++ {
		item := models.NewContent("src-1", fmt.Sprintf("https://example.com/backlog/%d", i), "Quiet story", "")
		item.Status = models.ContentStatusProcessed
		item.ImportanceScore = &low
		item.CollectedAt = backlogTime.Add(time.Duration(i) * time.Second)
		_, err := f.storage.Content().SaveIfNew(ctx, item)
		require.NoError(t, err)
	}

	high := 0.9
	fresh := models.NewContent("src-1", "https://example.com/fresh", "Big story", "")
	fresh.Status = models.ContentStatusProcessed
	fresh.ImportanceScore = &high
	_, err := f.storage.Content().SaveIfNew(ctx, fresh)
	require.NoError(t, err)

	notified, err := f.coordinator.RunNotify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, notified)
	require.Len(t, f.notifier.contents, 1)
	assert.Equal(t, fresh.ID, f.notifier.contents[0].ID)

	got, err := f.storage.Content().GetContent(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusNotified, got.Status)
}

func TestRunNotify_ChannelFailureStillMarksNotified(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()
	f.notifier.err = errors.New("channel_not_found")

	item := models.NewContent("src-1", "https://example.com/1", "Big", "")
	_, err := f.storage.Content().SaveIfNew(ctx, item)
	require.NoError(t, err)
	high := 0.9
	item.ImportanceScore = &high
	item.Status = models.ContentStatusProcessed
	require.NoError(t, f.storage.Content().UpdateContent(ctx, item))

	notified, err := f.coordinator.RunNotify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, notified, "delivery failure does not requeue the item")

	got, err := f.storage.Content().GetContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusNotified, got.Status)
}

func TestRunCrawl_SoftCapStopsDispatch(t *testing.T) {
	f := newFixture(t, richAnalysis)
	f.coordinator.cfg.JobTimeout = time.Hour
	f.coordinator.cfg.JobSoftTimeout = time.Nanosecond
	ctx := context.Background()

	source := f.addSource(t, "feed-a", models.NewContent("", "https://example.com/1", "Story", ""))

	exec, err := f.coordinator.RunCrawl(ctx, []string{source.ID})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, exec.Status)
	assert.Equal(t, 0, exec.ItemsCollected, "sources are not dispatched past the soft cap")
}

func TestRunFull_EndToEnd(t *testing.T) {
	f := newFixture(t, richAnalysis)
	ctx := context.Background()

	f.addSource(t, "feed-a", models.NewContent("", "https://example.com/1", "OpenAI releases model", "launch details"))

	exec, err := f.coordinator.RunFull(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, exec.ItemsCollected)
	assert.Equal(t, 1, exec.ItemsSaved)
	assert.Equal(t, 1, exec.ItemsNotified)
	require.Len(t, f.notifier.contents, 1)

	count, err := f.storage.Content().CountContentByStatus(ctx, models.ContentStatusNotified)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
