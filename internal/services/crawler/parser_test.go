package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusintel/argus/internal/common"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>AI Weekly</title>
    <item>
      <title>New model released</title>
      <link>https://example.com/articles/new-model</link>
      <description>A new model was released today.</description>
      <pubDate>Mon, 24 Aug 2026 09:00:00 GMT</pubDate>
      <category>research</category>
    </item>
    <item>
      <title>Entry without link</title>
      <description>Should be skipped.</description>
    </item>
  </channel>
</rss>`

const sampleChannelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">
  <title>Two Minute Papers</title>
  <entry>
    <title>What a time to be alive!</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123XYZ_-"/>
    <author><name>Two Minute Papers</name></author>
    <yt:videoId>abc123XYZ_-</yt:videoId>
    <yt:channelId>UCbfYPyITQ-7l4upoX8nvctg</yt:channelId>
    <published>2026-08-24T10:00:00+00:00</published>
    <media:group>
      <media:description>We look at a new paper.</media:description>
    </media:group>
  </entry>
</feed>`

const sampleListPage = `<html><body>
<ul class="articles">
  <li class="article">
    <h3 class="headline">First story</h3>
    <a class="more" href="/news/first">read</a>
    <time class="when" datetime="2026-08-24T08:00:00Z">yesterday</time>
    <p class="teaser">Opening paragraph.</p>
  </li>
  <li class="article">
    <h3 class="headline">Second story</h3>
    <a class="more" href="https://other.example.org/second">read</a>
  </li>
  <li class="article">
    <h3 class="headline"></h3>
    <a class="more" href="/news/untitled">read</a>
  </li>
</ul>
</body></html>`

const sampleBidBoard = `<html><body>
<table class="list_table"><tbody>
  <tr>
    <td>20260824001</td>
    <td><a href="javascript:viewDetail('20260824001')">인공지능 기반 민원 분석 시스템 구축 용역</a></td>
    <td>행정안전부</td>
    <td>2026-09-15</td>
    <td>250,000,000원</td>
  </tr>
  <tr>
    <td>20260824002</td>
    <td><a href="/notice/20260824002">도로 보수 공사</a></td>
    <td>국토교통부</td>
    <td>2026-09-20</td>
    <td>1,000,000원</td>
  </tr>
</tbody></table>
</body></html>`

func TestFeedParser_ParsesItems(t *testing.T) {
	p := NewFeedParser(common.GetLogger().WithPrefix("test"))

	results, err := p.Parse([]byte(sampleRSS))
	require.NoError(t, err)
	require.Len(t, results, 1, "entry without link is skipped")

	r := results[0]
	assert.Equal(t, "https://example.com/articles/new-model", r.URL)
	assert.Equal(t, "New model released", r.Title)
	assert.Equal(t, "A new model was released today.", r.Content)
	require.NotNil(t, r.PublishedAt)
	assert.Equal(t, "AI Weekly", r.Metadata["feed_title"])
}

func TestFeedParser_MalformedInputYieldsNoItems(t *testing.T) {
	p := NewFeedParser(common.GetLogger().WithPrefix("test"))

	// a broken feed is tolerated, not treated as a source failure
	results, err := p.Parse([]byte("this is not xml"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChannelParser_CanonicalizesWatchURL(t *testing.T) {
	p := NewChannelParser(common.GetLogger().WithPrefix("test"))

	results, err := p.Parse([]byte(sampleChannelFeed))
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123XYZ_-", r.URL)
	assert.Equal(t, "What a time to be alive!", r.Title)
	assert.Equal(t, "We look at a new paper.", r.Content)
	assert.Equal(t, "abc123XYZ_-", r.Metadata["video_id"])
	assert.Equal(t, "UCbfYPyITQ-7l4upoX8nvctg", r.Metadata["channel_id"])
	assert.Equal(t, "Two Minute Papers", r.Metadata["channel_name"])
}

func TestHTMLParser_SelectorDrivenExtraction(t *testing.T) {
	p := NewHTMLParser(common.GetLogger().WithPrefix("test"))
	cfg := &Config{
		ListSelector:    "li.article",
		TitleSelector:   "h3.headline",
		LinkSelector:    "a.more",
		DateSelector:    "time.when",
		ContentSelector: "p.teaser",
	}

	results, err := p.Parse([]byte(sampleListPage), "https://news.example.com/latest", cfg)
	require.NoError(t, err)
	require.Len(t, results, 2, "item without title is skipped")

	assert.Equal(t, "https://news.example.com/news/first", results[0].URL, "relative links resolve against the page origin")
	assert.Equal(t, "First story", results[0].Title)
	assert.Equal(t, "Opening paragraph.", results[0].Content)
	require.NotNil(t, results[0].PublishedAt)

	assert.Equal(t, "https://other.example.org/second", results[1].URL, "absolute links pass through")
}

func TestHTMLParser_NoMatchesReturnsErrNoItems(t *testing.T) {
	p := NewHTMLParser(common.GetLogger().WithPrefix("test"))
	cfg := &Config{ListSelector: "div.gone", TitleSelector: "h3"}

	_, err := p.Parse([]byte(sampleListPage), "https://news.example.com", cfg)
	require.ErrorIs(t, err, ErrNoItems)
}

func TestHTMLParser_MissingConfig(t *testing.T) {
	p := NewHTMLParser(common.GetLogger().WithPrefix("test"))

	_, err := p.Parse([]byte(sampleListPage), "https://news.example.com", nil)
	require.ErrorIs(t, err, ErrNoItems)
}

func TestBidBoardParser_ExtractsNotices(t *testing.T) {
	p := NewBidBoardParser("https://bid.example.go.kr", common.GetLogger().WithPrefix("test"))

	results, err := p.Parse([]byte(sampleBidBoard), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "https://bid.example.go.kr/pt/menu/selectSubFrame.do?bidNo=20260824001", first.URL,
		"javascript hrefs resolve through the notice number")
	assert.Equal(t, "인공지능 기반 민원 분석 시스템 구축 용역", first.Title)
	assert.Equal(t, "20260824001", first.Metadata["bid_number"])
	assert.Equal(t, "행정안전부", first.Metadata["organization"])
	assert.Equal(t, "2026-09-15", first.Metadata["deadline"])
	require.NotNil(t, first.PublishedAt)

	assert.Equal(t, "https://bid.example.go.kr/notice/20260824002", results[1].URL)
}

func TestBidBoardParser_KeywordFilter(t *testing.T) {
	p := NewBidBoardParser("https://bid.example.go.kr", common.GetLogger().WithPrefix("test"))

	results, err := p.Parse([]byte(sampleBidBoard), &Config{Keywords: []string{"인공지능", "AI"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Title, "인공지능")
}

func TestConfigFromMap_RoundTrip(t *testing.T) {
	m := map[string]interface{}{
		"list_selector":  "li.article",
		"title_selector": "h3",
		"link_selector":  "a",
		"base_url":       "https://example.com",
	}

	cfg := ConfigFromMap(m)
	assert.Equal(t, "li.article", cfg.ListSelector)
	assert.Equal(t, "h3", cfg.TitleSelector)
	assert.Equal(t, "https://example.com", cfg.BaseURL)

	back := cfg.ToMap()
	assert.Equal(t, m["list_selector"], back["list_selector"])
	assert.Equal(t, m["base_url"], back["base_url"])
}
