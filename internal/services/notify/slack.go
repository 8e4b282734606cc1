package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/models"
)

// SlackNotifier delivers content and reports to a Slack channel using
// block-formatted messages.
type SlackNotifier struct {
	client  *slack.Client
	channel string
	logger  arbor.ILogger
}

// NewSlackNotifier creates a Slack notifier for the given channel
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
		logger:  common.GetLogger().WithPrefix("notify.slack"),
	}
}

func (n *SlackNotifier) Name() string { return "slack" }

// Notify posts a single content item
func (n *SlackNotifier) Notify(ctx context.Context, content *models.Content) error {
	blocks := buildContentBlocks(content)

	_, ts, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(content.Title, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("posting to slack channel %s: %w", n.channel, err)
	}

	n.logger.Info().
		Str("channel", n.channel).
		Str("content_id", content.ID).
		Str("ts", ts).
		Msg("Slack message sent")
	return nil
}

// NotifyReport posts a generated report summary
func (n *SlackNotifier) NotifyReport(ctx context.Context, report *models.Report) error {
	header := fmt.Sprintf("%s report (%s to %s)",
		capitalize(string(report.Kind)),
		report.Period.Start.Format("2006-01-02"),
		report.Period.End.Format("2006-01-02"))

	body, err := json.MarshalIndent(report.Body, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report body: %w", err)
	}
	text := string(body)
	if len(text) > 2900 {
		text = text[:2900] + "\n..."
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, header, false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("Items analyzed: %d", report.ContentCount), false, false), nil, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
			"```"+text+"```", false, false), nil, nil),
	}

	_, _, err = n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(header, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("posting report to slack channel %s: %w", n.channel, err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildContentBlocks(content *models.Content) []slack.Block {
	importance := 0.5
	if content.ImportanceScore != nil {
		importance = *content.ImportanceScore
	}

	marker := "⚪"
	switch {
	case importance >= 0.8:
		marker = "🔴"
	case importance >= 0.6:
		marker = "🟡"
	}

	title := fmt.Sprintf("%s <%s|%s>", marker, content.URL, content.Title)
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, title, false, false), nil, nil),
	}

	if content.Summary != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, content.Summary, false, false), nil, nil))
	}

	var fields []string
	if len(content.MatchedKeywords) > 0 {
		fields = append(fields, "Keywords: "+strings.Join(content.MatchedKeywords, ", "))
	}
	if len(content.Categories) > 0 {
		fields = append(fields, "Categories: "+strings.Join(content.Categories, ", "))
	}
	fields = append(fields, fmt.Sprintf("Importance: %.2f", importance))

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(fields, " | "), false, false)))

	return blocks
}
