package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/argusintel/argus/internal/models"
)

// ScheduleStorage implements cron schedule persistence on Badger
type ScheduleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewScheduleStorage creates a new schedule storage instance
func NewScheduleStorage(db *BadgerDB, logger arbor.ILogger) *ScheduleStorage {
	return &ScheduleStorage{db: db, logger: logger}
}

// StoreSchedule inserts or updates a schedule
func (s *ScheduleStorage) StoreSchedule(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(schedule.ID, schedule); err != nil {
		return fmt.Errorf("failed to store schedule: %w", err)
	}
	return nil
}

// GetSchedule retrieves a schedule by ID
func (s *ScheduleStorage) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := s.db.Store().Get(id, &schedule); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("schedule not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

// GetAllSchedules returns every schedule
func (s *ScheduleStorage) GetAllSchedules(ctx context.Context) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	if err := s.db.Store().Find(&schedules, nil); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// GetActiveSchedules returns schedules eligible for registration
func (s *ScheduleStorage) GetActiveSchedules(ctx context.Context) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	if err := s.db.Store().Find(&schedules, badgerhold.Where("IsActive").Eq(true)); err != nil {
		return nil, fmt.Errorf("failed to list active schedules: %w", err)
	}
	return schedules, nil
}

// UpdateSchedule overwrites a schedule
func (s *ScheduleStorage) UpdateSchedule(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now()
	if err := s.db.Store().Update(schedule.ID, schedule); err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

// DeleteSchedule removes a schedule
func (s *ScheduleStorage) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Schedule{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}
