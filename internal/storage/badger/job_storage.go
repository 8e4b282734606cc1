package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/argusintel/argus/internal/models"
)

// JobStorage implements pipeline execution audit persistence on Badger
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new job storage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) *JobStorage {
	return &JobStorage{db: db, logger: logger}
}

// StoreExecution inserts or updates an execution record
func (s *JobStorage) StoreExecution(ctx context.Context, exec *models.JobExecution) error {
	if err := s.db.Store().Upsert(exec.ID, exec); err != nil {
		return fmt.Errorf("failed to store job execution: %w", err)
	}
	return nil
}

// GetExecution retrieves an execution record by ID
func (s *JobStorage) GetExecution(ctx context.Context, id string) (*models.JobExecution, error) {
	var exec models.JobExecution
	if err := s.db.Store().Get(id, &exec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("job execution not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get job execution: %w", err)
	}
	return &exec, nil
}

// GetExecutionsByStatus returns execution records in the given status
func (s *JobStorage) GetExecutionsByStatus(ctx context.Context, status models.JobStatus) ([]*models.JobExecution, error) {
	var execs []*models.JobExecution
	if err := s.db.Store().Find(&execs, badgerhold.Where("Status").Eq(status)); err != nil {
		return nil, fmt.Errorf("failed to list job executions by status: %w", err)
	}
	return execs, nil
}

// GetRecentExecutions returns the newest execution records first
func (s *JobStorage) GetRecentExecutions(ctx context.Context, limit int) ([]*models.JobExecution, error) {
	var execs []*models.JobExecution
	if err := s.db.Store().Find(&execs, nil); err != nil {
		return nil, fmt.Errorf("failed to list job executions: %w", err)
	}

	sort.Slice(execs, func(i, j int) bool {
		return execs[i].CreatedAt.After(execs[j].CreatedAt)
	})

	if limit > 0 && len(execs) > limit {
		execs = execs[:limit]
	}
	return execs, nil
}

// UpdateExecution overwrites an execution record
func (s *JobStorage) UpdateExecution(ctx context.Context, exec *models.JobExecution) error {
	if err := s.db.Store().Update(exec.ID, exec); err != nil {
		return fmt.Errorf("failed to update job execution: %w", err)
	}
	return nil
}

// DeleteExecutionsBefore removes records created before the cutoff and
// returns how many were removed. Used by retention cleanup.
func (s *JobStorage) DeleteExecutionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var execs []*models.JobExecution
	if err := s.db.Store().Find(&execs, badgerhold.Where("CreatedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find old job executions: %w", err)
	}

	deleted := 0
	for _, exec := range execs {
		if err := s.db.Store().Delete(exec.ID, &models.JobExecution{}); err != nil {
			s.logger.Warn().Str("id", exec.ID).Err(err).Msg("Failed to delete old execution record")
			continue
		}
		deleted++
	}
	return deleted, nil
}
