package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/argusintel/argus/internal/models"
)

// SourceStorage implements source persistence on Badger
type SourceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSourceStorage creates a new source storage instance
func NewSourceStorage(db *BadgerDB, logger arbor.ILogger) *SourceStorage {
	return &SourceStorage{db: db, logger: logger}
}

// StoreSource inserts or updates a source
func (s *SourceStorage) StoreSource(ctx context.Context, source *models.Source) error {
	source.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(source.ID, source); err != nil {
		return fmt.Errorf("failed to store source: %w", err)
	}
	return nil
}

// GetSource retrieves a source by ID
func (s *SourceStorage) GetSource(ctx context.Context, id string) (*models.Source, error) {
	var source models.Source
	if err := s.db.Store().Get(id, &source); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("source not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &source, nil
}

// GetAllSources returns every registered source
func (s *SourceStorage) GetAllSources(ctx context.Context) ([]*models.Source, error) {
	var sources []*models.Source
	if err := s.db.Store().Find(&sources, nil); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// GetSourcesByStatus returns sources with the given status
func (s *SourceStorage) GetSourcesByStatus(ctx context.Context, status models.SourceStatus) ([]*models.Source, error) {
	var sources []*models.Source
	if err := s.db.Store().Find(&sources, badgerhold.Where("Status").Eq(status)); err != nil {
		return nil, fmt.Errorf("failed to list sources by status: %w", err)
	}
	return sources, nil
}

// GetDueSources returns sources eligible for crawling at the given time.
// Eligibility lives on the model; the store just filters.
func (s *SourceStorage) GetDueSources(ctx context.Context, now time.Time) ([]*models.Source, error) {
	all, err := s.GetAllSources(ctx)
	if err != nil {
		return nil, err
	}

	due := make([]*models.Source, 0, len(all))
	for _, source := range all {
		if source.Due(now) {
			due = append(due, source)
		}
	}
	return due, nil
}

// DeleteSource removes a source
func (s *SourceStorage) DeleteSource(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Source{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}

// CountSources returns the number of registered sources
func (s *SourceStorage) CountSources(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Source{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return int(count), nil
}
