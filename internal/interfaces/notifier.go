package interfaces

import (
	"context"

	"github.com/argusintel/argus/internal/models"
)

// Notifier delivers enriched content to one outbound channel
type Notifier interface {
	// Name identifies the channel in logs ("slack", "webhook")
	Name() string

	// Notify delivers one content item
	Notify(ctx context.Context, content *models.Content) error

	// NotifyReport delivers a generated report
	NotifyReport(ctx context.Context, report *models.Report) error
}
