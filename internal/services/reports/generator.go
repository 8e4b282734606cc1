package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
)

const (
	reportContentLimit = 100
	promptContentCap   = 50
	sourceCitationCap  = 10
)

// Generator builds intelligence reports from enriched content. The AI
// produces the narrative; the envelope shape is stable regardless of what
// the model returns.
type Generator struct {
	storage      interfaces.ContentStorage
	reports      interfaces.ReportStorage
	orchestrator interfaces.Orchestrator
	logger       arbor.ILogger
}

// NewGenerator creates a report generator
func NewGenerator(storage interfaces.ContentStorage, reports interfaces.ReportStorage, orchestrator interfaces.Orchestrator) *Generator {
	return &Generator{
		storage:      storage,
		reports:      reports,
		orchestrator: orchestrator,
		logger:       common.GetLogger().WithPrefix("reports"),
	}
}

// GenerateDaily builds the last-24-hours brief
func (g *Generator) GenerateDaily(ctx context.Context) (*models.Report, error) {
	end := time.Now()
	return g.generate(ctx, models.ReportKindDaily, "", end.Add(-24*time.Hour), end)
}

// GenerateWeekly builds the last-7-days report
func (g *Generator) GenerateWeekly(ctx context.Context) (*models.Report, error) {
	end := time.Now()
	return g.generate(ctx, models.ReportKindWeekly, "", end.Add(-7*24*time.Hour), end)
}

// GenerateCustom builds a topic-focused report over the given number of days
func (g *Generator) GenerateCustom(ctx context.Context, topic string, days int) (*models.Report, error) {
	if days <= 0 {
		days = 30
	}
	end := time.Now()
	return g.generate(ctx, models.ReportKindCustom, topic, end.Add(-time.Duration(days)*24*time.Hour), end)
}

func (g *Generator) generate(ctx context.Context, kind models.ReportKind, topic string, start, end time.Time) (*models.Report, error) {
	contents, err := g.collect(ctx, start, topic)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		ID:           common.NewID(),
		Kind:         kind,
		Topic:        topic,
		Period:       models.ReportPeriod{Start: start, End: end},
		GeneratedAt:  time.Now(),
		ContentCount: len(contents),
		Sources:      citations(contents),
	}

	if len(contents) == 0 {
		report.Body = map[string]interface{}{
			"message": "No content available for the specified period.",
		}
		return g.store(ctx, report)
	}

	prompt := g.buildPrompt(kind, topic, start, end, contents)

	resp, err := g.orchestrator.Request(ctx, interfaces.TaskTypeAnalyze, &interfaces.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("generating %s report: %w", kind, err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(common.ExtractJSONObject(resp.Text)), &body); err != nil {
		// keep the model's narrative even when it ignores the JSON contract
		body = map[string]interface{}{"raw_analysis": resp.Text}
	}
	report.Body = body

	g.logger.Info().
		Str("kind", string(kind)).
		Int("content_count", len(contents)).
		Str("provider", resp.Provider).
		Msg("Report generated")

	return g.store(ctx, report)
}

func (g *Generator) store(ctx context.Context, report *models.Report) (*models.Report, error) {
	if g.reports != nil {
		if err := g.reports.StoreReport(ctx, report); err != nil {
			g.logger.Warn().Err(err).Msg("Failed to persist report")
		}
	}
	return report, nil
}

// collect loads processed-or-later items in the window, sorted by
// importance descending, optionally filtered by topic.
func (g *Generator) collect(ctx context.Context, since time.Time, topic string) ([]*models.Content, error) {
	items, err := g.storage.GetContentSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading report content: %w", err)
	}

	filtered := make([]*models.Content, 0, len(items))
	for _, item := range items {
		if item.Status == models.ContentStatusNew {
			continue
		}
		if topic != "" && !mentionsTopic(item, topic) {
			continue
		}
		filtered = append(filtered, item)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return importanceOf(filtered[i]) > importanceOf(filtered[j])
	})

	if len(filtered) > reportContentLimit {
		filtered = filtered[:reportContentLimit]
	}
	return filtered, nil
}

func importanceOf(c *models.Content) float64 {
	if c.ImportanceScore == nil {
		return 0
	}
	return *c.ImportanceScore
}

func mentionsTopic(c *models.Content, topic string) bool {
	needle := strings.ToLower(topic)
	if strings.Contains(strings.ToLower(c.Title), needle) ||
		strings.Contains(strings.ToLower(c.Summary), needle) {
		return true
	}
	for _, kw := range c.MatchedKeywords {
		if strings.EqualFold(kw, topic) {
			return true
		}
	}
	for _, t := range c.KeyTopics {
		if strings.EqualFold(t, topic) {
			return true
		}
	}
	return false
}

func citations(contents []*models.Content) []models.ReportSource {
	n := len(contents)
	if n > sourceCitationCap {
		n = sourceCitationCap
	}
	sources := make([]models.ReportSource, 0, n)
	for _, c := range contents[:n] {
		sources = append(sources, models.ReportSource{Title: c.Title, URL: c.URL})
	}
	return sources
}

func (g *Generator) buildPrompt(kind models.ReportKind, topic string, start, end time.Time, contents []*models.Content) string {
	items := contents
	if len(items) > promptContentCap {
		items = items[:promptContentCap]
	}
	contentText := formatContents(items)

	switch kind {
	case models.ReportKindDaily:
		return fmt.Sprintf(`Generate a daily AI industry intelligence brief for %s.

Based on these news items:
%s

Create a JSON report with:
1. "headline": One-sentence overview of the day's most important development
2. "top_stories": Array of 3-5 most important stories with:
   - "title": Story title
   - "summary": 2-3 sentence summary
   - "impact": Why this matters (1 sentence)
   - "importance": "high", "medium", or "low"
3. "trends": Array of 2-3 emerging trends observed
4. "keyword_stats": Object with keyword categories and their mention counts
5. "notable_companies": Array of companies that were prominently mentioned
6. "outlook": Brief outlook for tomorrow based on today's developments

Return ONLY valid JSON.`, end.Format("2006-01-02"), contentText)

	case models.ReportKindWeekly:
		return fmt.Sprintf(`Generate a weekly AI industry intelligence report for %s to %s.

Based on these news items:
%s

Create a comprehensive JSON report with:
1. "executive_summary": 3-4 sentence overview of the week
2. "key_developments": Array of 5-7 major developments with:
   - "title": Development title
   - "description": Detailed description (3-4 sentences)
   - "implications": Business/industry implications
   - "category": Category (e.g., "Product Launch", "Funding", "Partnership")
3. "trend_analysis": Array of 3-5 trends with:
   - "trend": Trend name
   - "evidence": Supporting evidence from the week's news
   - "trajectory": "rising", "stable", or "declining"
4. "company_spotlight": Analysis of 3-5 most active companies
5. "technology_focus": Deep dive on 2-3 key technologies mentioned
6. "market_signals": Any market-relevant signals observed
7. "next_week_watchlist": 3-5 things to watch next week

Return ONLY valid JSON.`, start.Format("2006-01-02"), end.Format("2006-01-02"), contentText)

	default:
		return fmt.Sprintf(`Generate a focused intelligence report on "%s" covering %s to %s.

Based on these relevant news items:
%s

Create a focused JSON report with:
1. "overview": Executive summary of %s developments
2. "timeline": Chronological array of key events
3. "key_players": Companies and people involved
4. "technical_details": Any technical information mentioned
5. "market_impact": Market and business implications
6. "competitive_landscape": How different players are positioned
7. "future_outlook": Predictions and expected developments
8. "recommendations": Actionable insights

Return ONLY valid JSON.`, topic, start.Format("2006-01-02"), end.Format("2006-01-02"), contentText, topic)
	}
}

func formatContents(contents []*models.Content) string {
	var b strings.Builder
	for i, c := range contents {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Title)
		if c.Summary != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", c.Summary)
		}
		if len(c.Categories) > 0 {
			fmt.Fprintf(&b, "   Categories: %s\n", strings.Join(c.Categories, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
