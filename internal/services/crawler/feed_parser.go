package crawler

import (
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/ternarybob/arbor"
)

// FeedParser extracts items from RSS 2.0 and Atom feeds
type FeedParser struct {
	parser *gofeed.Parser
	logger arbor.ILogger
}

// NewFeedParser creates a feed parser
func NewFeedParser(logger arbor.ILogger) *FeedParser {
	return &FeedParser{
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Parse extracts one Result per feed entry. Entries without a link are
// skipped rather than failing the whole feed, and a feed the parser cannot
// read at all yields an empty list: feeds go malformed and recover on their
// own, which is not a source failure.
func (p *FeedParser) Parse(body []byte) ([]*Result, error) {
	feed, err := p.parser.ParseString(string(body))
	if err != nil {
		p.logger.Warn().Err(err).Msg("Feed could not be parsed, returning no items")
		return []*Result{}, nil
	}

	results := make([]*Result, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		// full entry content when present, summary/description otherwise
		content := item.Content
		if content == "" {
			content = item.Description
		}

		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil {
			// feeds with nonstandard timestamps gofeed could not parse
			published = parseDate(item.Published, "")
			if published == nil {
				published = parseDate(item.Updated, "")
			}
		}

		result := &Result{
			URL:         item.Link,
			Title:       strings.TrimSpace(item.Title),
			Content:     strings.TrimSpace(content),
			PublishedAt: published,
			Metadata:    map[string]interface{}{},
		}

		if len(item.Categories) > 0 {
			result.Metadata["categories"] = item.Categories
		}
		if len(item.Authors) > 0 {
			result.Metadata["author"] = item.Authors[0].Name
		}
		if item.GUID != "" {
			result.Metadata["entry_id"] = item.GUID
		}
		if feed.Title != "" {
			result.Metadata["feed_title"] = feed.Title
		}

		results = append(results, result)
	}

	p.logger.Debug().
		Str("feed_title", feed.Title).
		Int("items", len(feed.Items)).
		Int("parsed", len(results)).
		Msg("Feed parse complete")

	return results, nil
}
