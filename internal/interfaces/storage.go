package interfaces

import (
	"context"
	"time"

	"github.com/argusintel/argus/internal/models"
)

// SourceStorage - interface for crawl source persistence
type SourceStorage interface {
	StoreSource(ctx context.Context, source *models.Source) error
	GetSource(ctx context.Context, id string) (*models.Source, error)
	GetAllSources(ctx context.Context) ([]*models.Source, error)
	GetSourcesByStatus(ctx context.Context, status models.SourceStatus) ([]*models.Source, error)
	GetDueSources(ctx context.Context, now time.Time) ([]*models.Source, error)
	DeleteSource(ctx context.Context, id string) error
	CountSources(ctx context.Context) (int, error)
}

// ContentStorage - interface for collected content persistence.
// SaveIfNew is the single dedup gate: it inserts the item only when no row
// with the same content hash exists and reports whether it inserted.
type ContentStorage interface {
	SaveIfNew(ctx context.Context, content *models.Content) (bool, error)
	GetContent(ctx context.Context, id string) (*models.Content, error)
	GetContentByHash(ctx context.Context, hash string) (*models.Content, error)
	GetContentByStatus(ctx context.Context, status models.ContentStatus, limit int) ([]*models.Content, error)
	GetNotifiableContent(ctx context.Context, minImportance float64, limit int) ([]*models.Content, error)
	GetContentBySource(ctx context.Context, sourceID string) ([]*models.Content, error)
	GetContentSince(ctx context.Context, since time.Time) ([]*models.Content, error)
	UpdateContent(ctx context.Context, content *models.Content) error
	MarkProcessed(ctx context.Context, id string) error
	MarkNotified(ctx context.Context, id string) error
	DeleteContent(ctx context.Context, id string) error
	CountContent(ctx context.Context) (int, error)
	CountContentByStatus(ctx context.Context, status models.ContentStatus) (int, error)
}

// KeywordStorage - interface for taxonomy persistence
type KeywordStorage interface {
	StoreGroup(ctx context.Context, group *models.KeywordGroup) error
	GetGroup(ctx context.Context, id string) (*models.KeywordGroup, error)
	GetAllGroups(ctx context.Context) ([]*models.KeywordGroup, error)
	DeleteGroup(ctx context.Context, id string) error

	StoreKeyword(ctx context.Context, keyword *models.Keyword) error
	GetKeyword(ctx context.Context, id string) (*models.Keyword, error)
	GetKeywordsByGroup(ctx context.Context, groupID string) ([]*models.Keyword, error)
	GetActiveKeywords(ctx context.Context) ([]*models.Keyword, error)
	DeleteKeyword(ctx context.Context, id string) error
	CountKeywords(ctx context.Context) (int, error)
}

// JobStorage - interface for pipeline execution audit records
type JobStorage interface {
	StoreExecution(ctx context.Context, exec *models.JobExecution) error
	GetExecution(ctx context.Context, id string) (*models.JobExecution, error)
	GetExecutionsByStatus(ctx context.Context, status models.JobStatus) ([]*models.JobExecution, error)
	GetRecentExecutions(ctx context.Context, limit int) ([]*models.JobExecution, error)
	UpdateExecution(ctx context.Context, exec *models.JobExecution) error
	DeleteExecutionsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ScheduleStorage - interface for cron schedule persistence
type ScheduleStorage interface {
	StoreSchedule(ctx context.Context, schedule *models.Schedule) error
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	GetAllSchedules(ctx context.Context) ([]*models.Schedule, error)
	GetActiveSchedules(ctx context.Context) ([]*models.Schedule, error)
	UpdateSchedule(ctx context.Context, schedule *models.Schedule) error
	DeleteSchedule(ctx context.Context, id string) error
}

// ReportStorage - interface for generated report persistence
type ReportStorage interface {
	StoreReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	GetRecentReports(ctx context.Context, kind models.ReportKind, limit int) ([]*models.Report, error)
}

// StorageManager - aggregates the typed stores behind one lifecycle
type StorageManager interface {
	Sources() SourceStorage
	Content() ContentStorage
	Keywords() KeywordStorage
	Jobs() JobStorage
	Schedules() ScheduleStorage
	Reports() ReportStorage

	// Maintain prunes execution records older than the retention window
	// and reclaims storage space
	Maintain(ctx context.Context, executionRetention time.Duration) error

	Close() error
}
