package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
	"github.com/argusintel/argus/internal/services/crawler"
	"github.com/argusintel/argus/internal/services/matcher"
	"github.com/argusintel/argus/internal/services/notify"
	"github.com/argusintel/argus/internal/services/processor"
)

// Crawler is the slice of the crawl service the coordinator drives
type Crawler interface {
	Crawl(ctx context.Context, source *models.Source) ([]*models.Content, error)
}

// Coordinator runs the crawl, enrich, and notify stages over the shared
// store. Stages are decoupled: each picks up whatever the previous one left
// behind, so a crash between stages loses no work.
type Coordinator struct {
	storage  interfaces.StorageManager
	crawler  Crawler
	enricher *processor.Enricher
	matcher  *matcher.Matcher
	notifier *notify.Manager
	cfg      *common.PipelineConfig
	logger   arbor.ILogger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewCoordinator wires the pipeline stages together
func NewCoordinator(storage interfaces.StorageManager, crawlSvc Crawler, enricher *processor.Enricher, kwMatcher *matcher.Matcher, notifier *notify.Manager, cfg *common.PipelineConfig) *Coordinator {
	return &Coordinator{
		storage:  storage,
		crawler:  crawlSvc,
		enricher: enricher,
		matcher:  kwMatcher,
		notifier: notifier,
		cfg:      cfg,
		logger:   common.GetLogger().WithPrefix("pipeline"),
		inFlight: make(map[string]bool),
	}
}

// RunFull executes crawl, enrich, and notify back to back
func (c *Coordinator) RunFull(ctx context.Context) (*models.JobExecution, error) {
	exec, err := c.RunCrawl(ctx, nil)
	if err != nil {
		return exec, err
	}
	if _, err := c.RunEnrich(ctx); err != nil {
		return exec, err
	}
	notified, err := c.RunNotify(ctx)
	if err != nil {
		return exec, err
	}

	exec.ItemsNotified = notified
	if updateErr := c.storage.Jobs().UpdateExecution(ctx, exec); updateErr != nil {
		c.logger.Warn().Err(updateErr).Msg("Failed to update execution counters")
	}
	return exec, nil
}

// jobContext bounds a stage run by the configured hard wall-clock cap and
// returns the soft deadline at which the stage stops taking on new work.
// Zero config values leave the run unbounded.
func (c *Coordinator) jobContext(ctx context.Context) (context.Context, context.CancelFunc, time.Time) {
	var soft time.Time
	if c.cfg.JobSoftTimeout > 0 {
		soft = time.Now().Add(c.cfg.JobSoftTimeout)
	}
	if c.cfg.JobTimeout > 0 {
		bounded, cancel := context.WithTimeout(ctx, c.cfg.JobTimeout)
		return bounded, cancel, soft
	}
	return ctx, func() {}, soft
}

func softCapReached(soft time.Time) bool {
	return !soft.IsZero() && time.Now().After(soft)
}

// RunCrawl crawls the given sources through the worker pool. With no IDs it
// crawls every source that is due. Each source runs on at most one worker at
// a time, including across overlapping jobs.
func (c *Coordinator) RunCrawl(ctx context.Context, sourceIDs []string) (*models.JobExecution, error) {
	ctx, cancel, soft := c.jobContext(ctx)
	defer cancel()

	exec := models.NewJobExecution(models.TaskKindCrawl, map[string]interface{}{
		"source_ids": sourceIDs,
	})
	if err := c.storage.Jobs().StoreExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("recording crawl execution: %w", err)
	}

	sources, err := c.selectSources(ctx, sourceIDs)
	if err != nil {
		exec.Fail(err.Error())
		c.storage.Jobs().UpdateExecution(ctx, exec)
		return exec, err
	}

	c.logger.Info().
		Str("execution_id", exec.ID).
		Int("sources", len(sources)).
		Msg("Crawl started")

	workers := c.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	queue := make(chan *models.Source)
	var wg sync.WaitGroup
	var counters struct {
		sync.Mutex
		collected int
		saved     int
		retries   int
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range queue {
				collected, saved, retries := c.crawlSource(ctx, source)
				counters.Lock()
				counters.collected += collected
				counters.saved += saved
				counters.retries += retries
				counters.Unlock()
			}
		}()
	}

	for _, source := range sources {
		if softCapReached(soft) {
			c.logger.Warn().
				Str("execution_id", exec.ID).
				Msg("Soft time cap reached, not dispatching further sources")
			break
		}
		select {
		case queue <- source:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		exec.Fail(err.Error())
		c.storage.Jobs().UpdateExecution(ctx, exec)
		return exec, err
	}

	exec.RetryCount = counters.retries
	exec.Complete(counters.collected, counters.saved, 0)
	if err := c.storage.Jobs().UpdateExecution(ctx, exec); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close crawl execution")
	}

	c.logger.Info().
		Str("execution_id", exec.ID).
		Int("collected", counters.collected).
		Int("saved", counters.saved).
		Dur("duration", exec.Duration()).
		Msg("Crawl completed")
	return exec, nil
}

func (c *Coordinator) selectSources(ctx context.Context, sourceIDs []string) ([]*models.Source, error) {
	if len(sourceIDs) == 0 {
		return c.storage.Sources().GetDueSources(ctx, time.Now())
	}
	sources := make([]*models.Source, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		source, err := c.storage.Sources().GetSource(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading source %s: %w", id, err)
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// crawlSource fetches one source with retries and persists the new items.
// It returns (items collected, items saved after dedup, retries spent).
func (c *Coordinator) crawlSource(ctx context.Context, source *models.Source) (int, int, int) {
	if !c.acquire(source.ID) {
		c.logger.Warn().Str("source", source.Name).Msg("Source already in flight, dropping trigger")
		return 0, 0, 0
	}
	defer c.release(source.ID)

	items, retries, err := c.crawlWithRetry(ctx, source)
	now := time.Now()

	if err != nil {
		source.RecordFailure(now, err.Error())
		if storeErr := c.storage.Sources().StoreSource(ctx, source); storeErr != nil {
			c.logger.Error().Err(storeErr).Str("source", source.Name).Msg("Failed to persist source state")
		}
		c.logger.Warn().
			Err(err).
			Str("source", source.Name).
			Int("error_count", source.ErrorCount).
			Msg("Crawl failed")
		return 0, 0, retries
	}

	saved := 0
	for _, item := range items {
		inserted, saveErr := c.storage.Content().SaveIfNew(ctx, item)
		if saveErr != nil {
			c.logger.Error().Err(saveErr).Str("url", item.URL).Msg("Failed to save content")
			continue
		}
		if inserted {
			saved++
		}
	}

	source.RecordSuccess(now)
	if storeErr := c.storage.Sources().StoreSource(ctx, source); storeErr != nil {
		c.logger.Error().Err(storeErr).Str("source", source.Name).Msg("Failed to persist source state")
	}

	c.logger.Info().
		Str("source", source.Name).
		Int("collected", len(items)).
		Int("saved", saved).
		Msg("Source crawled")
	return len(items), saved, retries
}

// crawlWithRetry crawls the source up to MaxRetries times and reports how
// many retries it spent beyond the first attempt.
func (c *Coordinator) crawlWithRetry(ctx context.Context, source *models.Source) ([]*models.Content, int, error) {
	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		items, err := c.crawler.Crawl(ctx, source)
		if err == nil {
			return items, attempt - 1, nil
		}
		lastErr = err

		// an empty page is not transient; retrying the same fetch only
		// burns the rate budget
		if errors.Is(err, crawler.ErrNoItems) || ctx.Err() != nil {
			return nil, attempt - 1, lastErr
		}
		if attempt < attempts {
			c.logger.Debug().
				Str("source", source.Name).
				Int("attempt", attempt).
				Err(err).
				Msg("Crawl attempt failed, retrying")
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, attempt - 1, ctx.Err()
			}
		}
	}
	return nil, attempts - 1, lastErr
}

// RunEnrich analyzes a batch of new items and applies keyword matches.
// Enrichment never drops an item: analysis failures get neutral defaults
// and the item still advances to processed.
func (c *Coordinator) RunEnrich(ctx context.Context) (int, error) {
	ctx, cancel, soft := c.jobContext(ctx)
	defer cancel()

	batch := c.cfg.EnrichBatch
	if batch < 1 {
		batch = 100
	}

	items, err := c.storage.Content().GetContentByStatus(ctx, models.ContentStatusNew, batch)
	if err != nil {
		return 0, fmt.Errorf("loading new content: %w", err)
	}

	processed := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if softCapReached(soft) {
			c.logger.Warn().Int("processed", processed).Msg("Soft time cap reached, stopping enrichment pass")
			break
		}

		c.enricher.Enrich(ctx, item)
		c.applyMatches(ctx, item)

		if err := c.storage.Content().UpdateContent(ctx, item); err != nil {
			c.logger.Error().Err(err).Str("content_id", item.ID).Msg("Failed to persist enriched content")
			continue
		}
		processed++
	}

	if processed > 0 {
		c.logger.Info().Int("processed", processed).Msg("Enrichment pass completed")
	}
	return processed, nil
}

func (c *Coordinator) applyMatches(ctx context.Context, item *models.Content) {
	if c.matcher == nil {
		return
	}

	text := item.Title
	if item.Body != "" {
		text = item.Title + "\n\n" + item.Body
	}

	matches, err := c.matcher.Match(ctx, text)
	if err != nil {
		c.logger.Warn().Err(err).Str("content_id", item.ID).Msg("Keyword matching failed")
		return
	}

	keywords := make([]string, 0, len(matches))
	groups := make([]string, 0, len(matches))
	seenGroups := make(map[string]bool)
	for _, match := range matches {
		keywords = append(keywords, match.Keyword)
		if !seenGroups[match.KeywordGroup] {
			seenGroups[match.KeywordGroup] = true
			groups = append(groups, match.KeywordGroup)
		}
	}
	item.MatchedKeywords = keywords
	item.MatchedKeywordGroups = groups
}

// RunNotify pushes qualifying processed items out and marks them notified.
// Items below the thresholds stay processed; they remain report material.
func (c *Coordinator) RunNotify(ctx context.Context) (int, error) {
	ctx, cancel, soft := c.jobContext(ctx)
	defer cancel()

	batch := c.cfg.NotifyBatch
	if batch < 1 {
		batch = 50
	}

	// the importance floor is part of the selection, not a post-filter:
	// otherwise sub-threshold processed items fill the batch and newer
	// qualifying items never get picked up
	items, err := c.storage.Content().GetNotifiableContent(ctx, c.cfg.MinImportance, batch)
	if err != nil {
		return 0, fmt.Errorf("loading notifiable content: %w", err)
	}

	notified := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return notified, ctx.Err()
		}
		if softCapReached(soft) {
			c.logger.Warn().Int("notified", notified).Msg("Soft time cap reached, stopping notify pass")
			break
		}
		if !c.notifier.Qualifies(item) {
			continue
		}

		c.notifier.Dispatch(ctx, item)

		if err := c.storage.Content().MarkNotified(ctx, item.ID); err != nil {
			c.logger.Error().Err(err).Str("content_id", item.ID).Msg("Failed to mark content notified")
			continue
		}
		notified++
	}

	if notified > 0 {
		c.logger.Info().Int("notified", notified).Msg("Notify pass completed")
	}
	return notified, nil
}

func (c *Coordinator) acquire(sourceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[sourceID] {
		return false
	}
	c.inFlight[sourceID] = true
	return true
}

func (c *Coordinator) release(sourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, sourceID)
}
