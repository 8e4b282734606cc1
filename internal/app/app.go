package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/httpclient"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
	"github.com/argusintel/argus/internal/services/crawler"
	"github.com/argusintel/argus/internal/services/llm"
	"github.com/argusintel/argus/internal/services/matcher"
	"github.com/argusintel/argus/internal/services/notify"
	"github.com/argusintel/argus/internal/services/pipeline"
	"github.com/argusintel/argus/internal/services/processor"
	"github.com/argusintel/argus/internal/services/reports"
	"github.com/argusintel/argus/internal/services/scheduler"
	badgerstore "github.com/argusintel/argus/internal/storage/badger"
)

// executionRetention is how long pipeline audit records are kept
const executionRetention = 30 * 24 * time.Hour

// App owns every service and their startup/shutdown order
type App struct {
	Config       *common.Config
	Logger       arbor.ILogger
	Storage      interfaces.StorageManager
	Orchestrator interfaces.Orchestrator
	Crawler      *crawler.Service
	Matcher      *matcher.Matcher
	Enricher     *processor.Enricher
	Reports      *reports.Generator
	Notify       *notify.Manager
	Coordinator  *pipeline.Coordinator
	Scheduler    interfaces.SchedulerService
}

// New wires the application together. Order matters: storage first, then
// the AI providers, then the services that depend on both.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := badgerstore.NewManager(logger.WithPrefix("storage"), &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	ctx := context.Background()
	if err := badgerstore.LoadDefaultSources(ctx, storage.Sources(), logger); err != nil {
		storage.Close()
		return nil, fmt.Errorf("seeding default sources: %w", err)
	}
	if err := badgerstore.LoadDefaultTaxonomy(ctx, storage.Keywords(), logger); err != nil {
		storage.Close()
		return nil, fmt.Errorf("seeding default taxonomy: %w", err)
	}

	orchestrator := buildOrchestrator(config, logger)

	fetcher := httpclient.New(config.Crawler.RequestTimeout,
		httpclient.WithUserAgent(config.Crawler.UserAgent),
		httpclient.WithMaxAttempts(config.Crawler.MaxRetries),
	)
	limiter := crawler.NewRateLimiter(config.Crawler.RatePerMinute)
	crawlSvc := crawler.NewService(fetcher, limiter, orchestrator, &config.Crawler)

	kwMatcher := matcher.New(orchestrator)
	if err := loadTaxonomy(ctx, storage.Keywords(), kwMatcher); err != nil {
		storage.Close()
		return nil, err
	}

	enricher := processor.NewEnricher(orchestrator)
	reportGen := reports.NewGenerator(storage.Content(), storage.Reports(), orchestrator)

	notifyMgr := notify.NewManager(
		notify.Filter{MinImportance: config.Pipeline.MinImportance},
		buildNotifiers(config)...,
	)

	coordinator := pipeline.NewCoordinator(storage, crawlSvc, enricher, kwMatcher, notifyMgr, &config.Pipeline)

	app := &App{
		Config:       config,
		Logger:       logger,
		Storage:      storage,
		Orchestrator: orchestrator,
		Crawler:      crawlSvc,
		Matcher:      kwMatcher,
		Enricher:     enricher,
		Reports:      reportGen,
		Notify:       notifyMgr,
		Coordinator:  coordinator,
		Scheduler:    scheduler.NewService(config.Scheduler.Timezone),
	}

	if err := app.registerSchedules(ctx); err != nil {
		storage.Close()
		return nil, err
	}

	logger.Info().
		Strs("providers", orchestrator.AvailableProviders()).
		Strs("channels", notifyMgr.Channels()).
		Msg("Application initialized")
	return app, nil
}

// Start begins scheduled operation
func (a *App) Start() error {
	return a.Scheduler.Start()
}

// Close shuts everything down in reverse dependency order
func (a *App) Close() error {
	if err := a.Scheduler.Stop(); err != nil {
		a.Logger.Warn().Err(err).Msg("Scheduler stop failed")
	}
	return a.Storage.Close()
}

// ReloadTaxonomy rebuilds the matcher tables from storage. Call after
// keyword edits.
func (a *App) ReloadTaxonomy(ctx context.Context) error {
	return loadTaxonomy(ctx, a.Storage.Keywords(), a.Matcher)
}

func buildOrchestrator(config *common.Config, logger arbor.ILogger) interfaces.Orchestrator {
	llmLogger := logger.WithPrefix("llm")
	providers := []interfaces.Provider{
		llm.NewOpenAIProvider(&config.OpenAI, llmLogger),
		llm.NewClaudeProvider(&config.Claude, llmLogger),
		llm.NewPerplexityProvider(&config.Perplexity, llmLogger),
	}
	if gemini, err := llm.NewGeminiProvider(&config.Gemini, llmLogger); err != nil {
		logger.Warn().Err(err).Msg("Gemini provider unavailable")
	} else {
		providers = append(providers, gemini)
	}
	return llm.NewOrchestrator(providers, config.LLM.PreferredProvider, config.LLM.RequestTimeout, llmLogger)
}

func buildNotifiers(config *common.Config) []interfaces.Notifier {
	var notifiers []interfaces.Notifier
	if config.Notify.SlackToken != "" && config.Notify.SlackChannel != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(config.Notify.SlackToken, config.Notify.SlackChannel))
	}
	if config.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(config.Notify.WebhookURL))
	}
	return notifiers
}

func loadTaxonomy(ctx context.Context, store interfaces.KeywordStorage, kwMatcher *matcher.Matcher) error {
	groups, err := store.GetAllGroups(ctx)
	if err != nil {
		return fmt.Errorf("loading keyword groups: %w", err)
	}
	keywords, err := store.GetActiveKeywords(ctx)
	if err != nil {
		return fmt.Errorf("loading keywords: %w", err)
	}
	kwMatcher.Load(groups, keywords)
	return nil
}

// registerSchedules registers the stored schedules, seeding the defaults on
// first run.
func (a *App) registerSchedules(ctx context.Context) error {
	schedules, err := a.Storage.Schedules().GetAllSchedules(ctx)
	if err != nil {
		return fmt.Errorf("loading schedules: %w", err)
	}

	if len(schedules) == 0 {
		schedules = defaultSchedules()
		for _, schedule := range schedules {
			if err := a.Storage.Schedules().StoreSchedule(ctx, schedule); err != nil {
				return fmt.Errorf("seeding schedule %s: %w", schedule.Name, err)
			}
		}
		a.Logger.Info().Int("count", len(schedules)).Msg("Default schedules seeded")
	}

	for _, schedule := range schedules {
		if !schedule.IsActive {
			continue
		}
		handler := a.handlerFor(schedule)
		if err := a.Scheduler.RegisterJob(schedule.Name, schedule.CronExpression, handler); err != nil {
			a.Logger.Error().
				Err(err).
				Str("schedule", schedule.Name).
				Msg("Failed to register schedule")
		}
	}

	// housekeeping runs outside the stored schedules
	return a.Scheduler.RegisterJob("maintenance", "0 3 * * *", func() error {
		return a.Storage.Maintain(context.Background(), executionRetention)
	})
}

func (a *App) handlerFor(schedule *models.Schedule) func() error {
	sourceIDs := schedule.SourceIDs

	switch schedule.TaskKind {
	case models.TaskKindCrawl:
		return func() error {
			_, err := a.Coordinator.RunCrawl(context.Background(), sourceIDs)
			return err
		}
	case models.TaskKindProcess:
		return func() error {
			_, err := a.Coordinator.RunEnrich(context.Background())
			return err
		}
	case models.TaskKindNotify:
		return func() error {
			_, err := a.Coordinator.RunNotify(context.Background())
			return err
		}
	case models.TaskKindReport:
		return func() error {
			ctx := context.Background()
			report, err := a.Reports.GenerateDaily(ctx)
			if err != nil {
				return err
			}
			a.Notify.DispatchReport(ctx, report)
			return nil
		}
	default:
		return func() error {
			return fmt.Errorf("unknown task kind %q", schedule.TaskKind)
		}
	}
}

func defaultSchedules() []*models.Schedule {
	crawl := models.NewSchedule("pipeline", "*/30 * * * *", models.TaskKindCrawl)
	crawl.Description = "Crawl due sources every 30 minutes"

	process := models.NewSchedule("enrich", "*/10 * * * *", models.TaskKindProcess)
	process.Description = "Enrich and match newly collected content"

	notifyRun := models.NewSchedule("notify", "*/10 * * * *", models.TaskKindNotify)
	notifyRun.Description = "Push qualifying items to the configured channels"

	daily := models.NewSchedule("daily-report", "0 18 * * *", models.TaskKindReport)
	daily.Description = "Daily intelligence brief at 18:00"

	return []*models.Schedule{crawl, process, notifyRun, daily}
}
