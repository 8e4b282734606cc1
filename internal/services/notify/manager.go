package notify

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
)

// Filter decides which enriched items are worth pushing out. Zero values
// disable the corresponding check.
type Filter struct {
	MinImportance float64
	MinRelevance  float64
	KeywordGroups []string
}

// Manager fans a qualifying content item out to every configured channel.
// A failing channel never blocks the others.
type Manager struct {
	filter    Filter
	notifiers []interfaces.Notifier
	logger    arbor.ILogger
}

// NewManager creates a notification manager
func NewManager(filter Filter, notifiers ...interfaces.Notifier) *Manager {
	return &Manager{
		filter:    filter,
		notifiers: notifiers,
		logger:    common.GetLogger().WithPrefix("notify"),
	}
}

// Channels returns the names of the configured channels
func (m *Manager) Channels() []string {
	names := make([]string, 0, len(m.notifiers))
	for _, n := range m.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Qualifies reports whether content passes the configured thresholds
func (m *Manager) Qualifies(content *models.Content) bool {
	if m.filter.MinImportance > 0 {
		if content.ImportanceScore == nil || *content.ImportanceScore < m.filter.MinImportance {
			return false
		}
	}
	if m.filter.MinRelevance > 0 {
		if content.RelevanceScore == nil || *content.RelevanceScore < m.filter.MinRelevance {
			return false
		}
	}
	if len(m.filter.KeywordGroups) > 0 && !intersects(m.filter.KeywordGroups, content.MatchedKeywordGroups) {
		return false
	}
	return true
}

// Dispatch sends content to every channel. It returns the number of
// channels that accepted the message; delivery failures are logged per
// channel and do not abort the remaining ones. An item with no channels
// configured still counts as dispatched so the pipeline can advance it.
func (m *Manager) Dispatch(ctx context.Context, content *models.Content) int {
	sent := 0
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, content); err != nil {
			m.logger.Warn().
				Err(err).
				Str("channel", n.Name()).
				Str("content_id", content.ID).
				Msg("Notification delivery failed")
			continue
		}
		sent++
	}

	m.logger.Debug().
		Str("content_id", content.ID).
		Int("channels", len(m.notifiers)).
		Int("sent", sent).
		Msg("Content dispatched")
	return sent
}

// DispatchReport sends a report to every channel
func (m *Manager) DispatchReport(ctx context.Context, report *models.Report) int {
	sent := 0
	for _, n := range m.notifiers {
		if err := n.NotifyReport(ctx, report); err != nil {
			m.logger.Warn().
				Err(err).
				Str("channel", n.Name()).
				Str("report_id", report.ID).
				Msg("Report delivery failed")
			continue
		}
		sent++
	}
	return sent
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
