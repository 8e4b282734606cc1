package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/models"
)

// WebhookNotifier POSTs content and reports as JSON to a configured URL
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger arbor.ILogger
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: common.GetLogger().WithPrefix("notify.webhook"),
	}
}

func (n *WebhookNotifier) Name() string { return "webhook" }

// Notify delivers one content item
func (n *WebhookNotifier) Notify(ctx context.Context, content *models.Content) error {
	return n.post(ctx, map[string]interface{}{
		"event":   "content.notified",
		"content": content,
	})
}

// NotifyReport delivers a generated report
func (n *WebhookNotifier) NotifyReport(ctx context.Context, report *models.Report) error {
	return n.post(ctx, map[string]interface{}{
		"event":  "report.generated",
		"report": report,
	})
}

func (n *WebhookNotifier) post(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug().Str("url", n.url).Msg("Webhook delivered")
	return nil
}
