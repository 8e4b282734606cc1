package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/common"
	"github.com/argusintel/argus/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	sources   interfaces.SourceStorage
	content   interfaces.ContentStorage
	keywords  interfaces.KeywordStorage
	jobs      interfaces.JobStorage
	schedules interfaces.ScheduleStorage
	reports   interfaces.ReportStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		sources:   NewSourceStorage(db, logger),
		content:   NewContentStorage(db, logger),
		keywords:  NewKeywordStorage(db, logger),
		jobs:      NewJobStorage(db, logger),
		schedules: NewScheduleStorage(db, logger),
		reports:   NewReportStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

func (m *Manager) Sources() interfaces.SourceStorage { return m.sources }

func (m *Manager) Content() interfaces.ContentStorage { return m.content }

func (m *Manager) Keywords() interfaces.KeywordStorage { return m.keywords }

func (m *Manager) Jobs() interfaces.JobStorage { return m.jobs }

func (m *Manager) Schedules() interfaces.ScheduleStorage { return m.schedules }

func (m *Manager) Reports() interfaces.ReportStorage { return m.reports }

// Maintain prunes old execution records and compacts the value log
func (m *Manager) Maintain(ctx context.Context, executionRetention time.Duration) error {
	cutoff := time.Now().Add(-executionRetention)
	deleted, err := m.jobs.DeleteExecutionsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pruning job executions: %w", err)
	}

	if err := m.db.RunGC(); err != nil {
		return fmt.Errorf("badger value log gc: %w", err)
	}

	m.logger.Info().
		Int("executions_deleted", deleted).
		Msg("Storage maintenance completed")
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
