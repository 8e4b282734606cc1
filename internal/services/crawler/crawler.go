package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/httpclient"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
)

const healSampleBytes = 10000

const healPromptTemplate = `Analyze this HTML and provide CSS selectors to extract news/article list items.

HTML:
%s

Return a JSON object with these fields:
- list_selector: CSS selector for the list container or repeated items
- title_selector: CSS selector for article title (relative to list item)
- link_selector: CSS selector for article link (relative to list item)
- date_selector: CSS selector for publish date (relative to list item, if available)
- content_selector: CSS selector for article content/summary (relative to list item, if available)

Only return valid JSON, no explanation.`

// Service crawls sources by dispatching on kind and converts extraction
// results into content items. When an HTML source's selectors stop matching
// it makes one AI-assisted attempt per crawl to regenerate them.
type Service struct {
	fetcher      *httpclient.Fetcher
	limiter      *RateLimiter
	feedParser   *FeedParser
	channel      *ChannelParser
	html         *HTMLParser
	orchestrator interfaces.Orchestrator
	sampleBytes  int
	logger       arbor.ILogger
}

// NewService creates the crawl service. The orchestrator may be nil, which
// disables self-healing.
func NewService(fetcher *httpclient.Fetcher, limiter *RateLimiter, orchestrator interfaces.Orchestrator, cfg *common.CrawlerConfig) *Service {
	logger := common.GetLogger().WithPrefix("crawler")

	sampleBytes := healSampleBytes
	if cfg != nil && cfg.SampleBytes > 0 {
		sampleBytes = cfg.SampleBytes
	}

	return &Service{
		fetcher:      fetcher,
		limiter:      limiter,
		feedParser:   NewFeedParser(logger),
		channel:      NewChannelParser(logger),
		html:         NewHTMLParser(logger),
		orchestrator: orchestrator,
		sampleBytes:  sampleBytes,
		logger:       logger,
	}
}

// Crawl fetches and parses one source, returning content items in status
// new. The source's error accounting and healed config are updated in
// place; persisting those changes is the caller's job.
func (s *Service) Crawl(ctx context.Context, source *models.Source) ([]*models.Content, error) {
	if err := s.limiter.Wait(ctx, source.URL); err != nil {
		return nil, err
	}

	cfg := s.effectiveConfig(source)

	body, err := s.fetcher.Fetch(ctx, source.URL, cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("fetching source %s: %w", source.Name, err)
	}

	results, err := s.parse(body, source, cfg)
	if err != nil {
		if errors.Is(err, ErrNoItems) && source.Kind == models.SourceKindHTML {
			s.attemptHeal(ctx, source, body)
		}
		return nil, err
	}

	contents := make([]*models.Content, 0, len(results))
	for _, r := range results {
		content := models.NewContent(source.ID, r.URL, r.Title, r.Content)
		content.PublishedAt = r.PublishedAt
		content.Metadata = r.Metadata
		contents = append(contents, content)
	}

	s.logger.Info().
		Str("source", source.Name).
		Str("kind", string(source.Kind)).
		Int("items", len(contents)).
		Msg("Crawl complete")

	return contents, nil
}

func (s *Service) parse(body []byte, source *models.Source, cfg *Config) ([]*Result, error) {
	switch source.Kind {
	case models.SourceKindFeed:
		return s.feedParser.Parse(body)
	case models.SourceKindChannel:
		return s.channel.Parse(body)
	case models.SourceKindHTML:
		return s.html.Parse(body, source.URL, cfg)
	case models.SourceKindSearch:
		parser := NewBidBoardParser(originOf(source.URL), s.logger)
		return parser.Parse(body, cfg)
	case models.SourceKindAPI:
		return s.parseAPI(body, source)
	default:
		return nil, fmt.Errorf("unsupported source kind %q", source.Kind)
	}
}

// parseAPI handles JSON endpoints that return an array of objects with
// url/title fields, the common shape for aggregator APIs.
func (s *Service) parseAPI(body []byte, source *models.Source) ([]*Result, error) {
	var items []map[string]interface{}
	if err := json.Unmarshal(body, &items); err != nil {
		// some APIs wrap the array in an envelope
		var envelope map[string]interface{}
		if err2 := json.Unmarshal(body, &envelope); err2 != nil {
			return nil, fmt.Errorf("parsing api response: %w", err)
		}
		for _, v := range envelope {
			if arr, ok := v.([]interface{}); ok {
				for _, el := range arr {
					if m, ok := el.(map[string]interface{}); ok {
						items = append(items, m)
					}
				}
				break
			}
		}
	}

	var results []*Result
	for _, item := range items {
		url, _ := item["url"].(string)
		title, _ := item["title"].(string)
		if url == "" || title == "" {
			continue
		}
		content, _ := item["content"].(string)
		if content == "" {
			content, _ = item["description"].(string)
		}
		results = append(results, &Result{
			URL:      url,
			Title:    title,
			Content:  content,
			Metadata: map[string]interface{}{"type": "api"},
		})
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: api returned no usable items", ErrNoItems)
	}
	return results, nil
}

// effectiveConfig prefers the AI-healed config over the operator-supplied
// one once healing has produced it.
func (s *Service) effectiveConfig(source *models.Source) *Config {
	if source.AIGeneratedConfig != nil {
		return ConfigFromMap(source.AIGeneratedConfig)
	}
	return ConfigFromMap(source.Config)
}

// attemptHeal asks a model for fresh selectors from a page sample and
// stores them on the source. The healed config takes effect on the next
// crawl; the current one still reports its extraction failure.
func (s *Service) attemptHeal(ctx context.Context, source *models.Source, body []byte) {
	if s.orchestrator == nil {
		return
	}

	s.logger.Info().
		Str("source", source.Name).
		Int("config_version", source.ConfigVersion).
		Msg("Attempting selector regeneration")

	sample := string(body)
	if len(sample) > s.sampleBytes {
		sample = sample[:s.sampleBytes]
	}

	resp, err := s.orchestrator.Request(ctx, interfaces.TaskTypeExtract, &interfaces.CompletionRequest{
		Prompt: fmt.Sprintf(healPromptTemplate, sample),
	})
	if err != nil {
		s.logger.Error().
			Str("source", source.Name).
			Err(err).
			Msg("Selector regeneration request failed")
		return
	}

	var healed Config
	if err := json.Unmarshal([]byte(common.ExtractJSONObject(resp.Text)), &healed); err != nil {
		s.logger.Error().
			Str("source", source.Name).
			Err(err).
			Msg("Selector regeneration returned unparseable config")
		return
	}

	if healed.ListSelector == "" || healed.TitleSelector == "" {
		s.logger.Warn().
			Str("source", source.Name).
			Msg("Selector regeneration produced incomplete config, discarding")
		return
	}

	source.ApplyHealedConfig(healed.ToMap())

	s.logger.Info().
		Str("source", source.Name).
		Int("config_version", source.ConfigVersion).
		Str("list_selector", healed.ListSelector).
		Msg("Healed config stored for next crawl")
}
