package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/ternarybob/arbor"
)

var videoIDPattern = regexp.MustCompile(`v=([a-zA-Z0-9_-]+)`)

// ChannelParser extracts videos from platform channel feeds. Channel feeds
// are Atom with yt/media extensions; every item is canonicalized to a
// stable watch URL so dedup hashing is deterministic.
type ChannelParser struct {
	parser *gofeed.Parser
	logger arbor.ILogger
}

// NewChannelParser creates a channel feed parser
func NewChannelParser(logger arbor.ILogger) *ChannelParser {
	return &ChannelParser{
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Parse extracts one Result per video entry. Entries without a resolvable
// video ID are skipped.
func (p *ChannelParser) Parse(body []byte) ([]*Result, error) {
	feed, err := p.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing channel feed: %w", err)
	}

	results := make([]*Result, 0, len(feed.Items))
	for _, item := range feed.Items {
		videoID := extractVideoID(item)
		if videoID == "" {
			continue
		}

		result := &Result{
			URL:         "https://www.youtube.com/watch?v=" + videoID,
			Title:       strings.TrimSpace(item.Title),
			Content:     mediaDescription(item),
			PublishedAt: item.PublishedParsed,
			Metadata: map[string]interface{}{
				"video_id": videoID,
				"type":     "video",
			},
		}

		if len(item.Authors) > 0 {
			result.Metadata["channel_name"] = item.Authors[0].Name
		}
		if channelID := ytExtension(item, "channelId"); channelID != "" {
			result.Metadata["channel_id"] = channelID
		}
		if thumb := mediaThumbnail(item); thumb != "" {
			result.Metadata["thumbnail"] = thumb
		}
		if views := mediaViewCount(item); views != "" {
			result.Metadata["view_count"] = views
		}

		results = append(results, result)
	}

	p.logger.Debug().
		Str("channel", feed.Title).
		Int("videos", len(results)).
		Msg("Channel parse complete")

	return results, nil
}

// extractVideoID reads the yt:videoId extension, falling back to the v=
// query parameter on the entry link.
func extractVideoID(item *gofeed.Item) string {
	if id := ytExtension(item, "videoId"); id != "" {
		return id
	}
	if m := videoIDPattern.FindStringSubmatch(item.Link); len(m) == 2 {
		return m[1]
	}
	return ""
}

func ytExtension(item *gofeed.Item, name string) string {
	ext, ok := item.Extensions["yt"]
	if !ok {
		return ""
	}
	values, ok := ext[name]
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0].Value
}

// mediaThumbnail reads media:group/media:thumbnail@url
func mediaThumbnail(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		if groups, ok := media["group"]; ok && len(groups) > 0 {
			if thumbs, ok := groups[0].Children["thumbnail"]; ok && len(thumbs) > 0 {
				return thumbs[0].Attrs["url"]
			}
		}
	}
	return ""
}

// mediaViewCount reads media:group/media:community/media:statistics@views
func mediaViewCount(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		if groups, ok := media["group"]; ok && len(groups) > 0 {
			if community, ok := groups[0].Children["community"]; ok && len(community) > 0 {
				if stats, ok := community[0].Children["statistics"]; ok && len(stats) > 0 {
					return stats[0].Attrs["views"]
				}
			}
		}
	}
	return ""
}

// mediaDescription reads media:group/media:description, falling back to the
// entry summary.
func mediaDescription(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		if groups, ok := media["group"]; ok && len(groups) > 0 {
			if descs, ok := groups[0].Children["description"]; ok && len(descs) > 0 {
				return strings.TrimSpace(descs[0].Value)
			}
		}
	}
	return strings.TrimSpace(item.Description)
}
