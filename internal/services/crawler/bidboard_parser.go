package crawler

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

var (
	bidNoPattern    = regexp.MustCompile(`'(\d+)'`)
	noticeDate      = regexp.MustCompile(`(\d{4})[-/](\d{2})[-/](\d{2})`)
	priceSuffix     = regexp.MustCompile(`[\d,]+원?$`)
	defaultBidRows  = "table.list_table tbody tr, table.tb_list tbody tr"
	fallbackBidRows = "tr[onclick], tr.bg_color1, tr.bg_color2"
)

// BidBoardParser extracts procurement notices from government bid board
// result tables. The boards render server-side tables with javascript row
// links, so extraction is heuristic: try the common table layouts and fall
// back to clickable rows.
type BidBoardParser struct {
	baseURL string
	logger  arbor.ILogger
}

// NewBidBoardParser creates a bid board parser rooted at the board's origin
func NewBidBoardParser(baseURL string, logger arbor.ILogger) *BidBoardParser {
	return &BidBoardParser{baseURL: baseURL, logger: logger}
}

// Parse extracts one Result per notice row. Rows that do not yield a title
// are skipped; keyword filtering keeps only rows mentioning any configured
// keyword when keywords are present.
func (p *BidBoardParser) Parse(body []byte, cfg *Config) ([]*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing bid board html: %w", err)
	}

	rows := doc.Find(defaultBidRows)
	if rows.Length() == 0 {
		rows = doc.Find(fallbackBidRows)
	}
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: no notice rows found", ErrNoItems)
	}

	var keywords []string
	if cfg != nil {
		keywords = cfg.Keywords
	}

	var results []*Result
	rows.Each(func(_ int, row *goquery.Selection) {
		result := p.parseRow(row)
		if result == nil {
			return
		}
		if len(keywords) > 0 && !containsAny(result.Title, keywords) {
			return
		}
		results = append(results, result)
	})

	p.logger.Debug().
		Int("rows", rows.Length()).
		Int("parsed", len(results)).
		Msg("Bid board parse complete")

	return results, nil
}

func (p *BidBoardParser) parseRow(row *goquery.Selection) *Result {
	cells := row.Find("td")
	if cells.Length() < 4 {
		return nil
	}

	titleLink := row.Find("td a, td.title a").First()
	if titleLink.Length() == 0 {
		// pick the first link with meaningful text
		row.Find("td a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			if len(strings.TrimSpace(link.Text())) > 10 {
				titleLink = link
				return false
			}
			return true
		})
	}
	if titleLink.Length() == 0 {
		return nil
	}

	title := strings.TrimSpace(titleLink.Text())
	if title == "" {
		return nil
	}

	href, _ := titleLink.Attr("href")
	result := &Result{
		URL:      p.resolveNoticeURL(href),
		Title:    title,
		Metadata: map[string]interface{}{"type": "bid_notice"},
	}

	if first := cells.First(); first.Length() > 0 {
		result.Metadata["bid_number"] = strings.TrimSpace(first.Text())
	}
	if org := cells.Eq(2); org.Length() > 0 {
		result.Metadata["organization"] = strings.TrimSpace(org.Text())
	}

	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := strings.TrimSpace(cell.Text())
		if m := noticeDate.FindStringSubmatch(text); m != nil {
			if t, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])); err == nil {
				result.PublishedAt = &t
				result.Metadata["deadline"] = text
			}
			return false
		}
		return true
	})

	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := strings.TrimSpace(cell.Text())
		if strings.Contains(text, "원") || priceSuffix.MatchString(text) {
			result.Metadata["estimated_price"] = text
			return false
		}
		return true
	})

	return result
}

// resolveNoticeURL handles the three href shapes the boards emit: javascript
// row handlers carrying a notice number, relative paths, and absolute URLs.
func (p *BidBoardParser) resolveNoticeURL(href string) string {
	switch {
	case strings.HasPrefix(href, "javascript:"):
		if m := bidNoPattern.FindStringSubmatch(href); m != nil {
			return p.baseURL + "/pt/menu/selectSubFrame.do?bidNo=" + m[1]
		}
		return p.baseURL
	case strings.HasPrefix(href, "/"):
		return p.baseURL + href
	case href == "":
		return p.baseURL
	default:
		return href
	}
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
