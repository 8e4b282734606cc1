package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// dateLayouts are tried in order when parsing free-form date text
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// HTMLParser extracts article lists from selector-configured pages
type HTMLParser struct {
	logger arbor.ILogger
}

// NewHTMLParser creates an HTML list parser
func NewHTMLParser(logger arbor.ILogger) *HTMLParser {
	return &HTMLParser{logger: logger}
}

// Parse extracts one Result per list item using the config's selectors.
// Items missing a title or a resolvable link are skipped. Returns
// ErrNoItems when the list selector matches nothing, which triggers
// self-healing upstream.
func (p *HTMLParser) Parse(body []byte, pageURL string, cfg *Config) ([]*Result, error) {
	if cfg == nil || cfg.ListSelector == "" {
		return nil, fmt.Errorf("%w: no list selector configured", ErrNoItems)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	base := cfg.BaseURL
	if base == "" {
		base = originOf(pageURL)
	}

	items := doc.Find(cfg.ListSelector)
	if items.Length() == 0 {
		return nil, fmt.Errorf("%w: selector %q matched nothing", ErrNoItems, cfg.ListSelector)
	}

	var results []*Result
	items.Each(func(_ int, item *goquery.Selection) {
		result := p.parseItem(item, base, cfg)
		if result != nil {
			results = append(results, result)
		}
	})

	p.logger.Debug().
		Str("url", pageURL).
		Int("items", items.Length()).
		Int("parsed", len(results)).
		Msg("HTML list parse complete")

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %d items matched but none parsed", ErrNoItems, items.Length())
	}
	return results, nil
}

func (p *HTMLParser) parseItem(item *goquery.Selection, base string, cfg *Config) *Result {
	var title string
	if cfg.TitleSelector != "" {
		title = strings.TrimSpace(item.Find(cfg.TitleSelector).First().Text())
	}
	if title == "" {
		return nil
	}

	href := ""
	if cfg.LinkSelector != "" {
		href, _ = item.Find(cfg.LinkSelector).First().Attr("href")
	}
	if href == "" {
		// fall back to the first anchor in the item
		href, _ = item.Find("a[href]").First().Attr("href")
	}
	if href == "" {
		return nil
	}

	result := &Result{
		URL:      resolveURL(base, href),
		Title:    title,
		Metadata: map[string]interface{}{},
	}

	if cfg.ContentSelector != "" {
		result.Content = strings.TrimSpace(item.Find(cfg.ContentSelector).First().Text())
	}

	if cfg.DateSelector != "" {
		dateEl := item.Find(cfg.DateSelector).First()
		dateText := strings.TrimSpace(dateEl.Text())
		if dt, ok := dateEl.Attr("datetime"); ok {
			dateText = dt
		}
		if parsed := parseDate(dateText, cfg.DateFormat); parsed != nil {
			result.PublishedAt = parsed
		}
	}

	return result
}

// resolveURL joins a possibly relative href against the base origin
func resolveURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// originOf reduces a URL to scheme://host
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

func parseDate(text, preferredLayout string) *time.Time {
	if text == "" {
		return nil
	}
	if preferredLayout != "" {
		if t, err := time.Parse(preferredLayout, text); err == nil {
			return &t
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return &t
		}
	}
	return nil
}
