package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/argusintel/argus/internal/models"
)

// ReportStorage implements generated report persistence on Badger
type ReportStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReportStorage creates a new report storage instance
func NewReportStorage(db *BadgerDB, logger arbor.ILogger) *ReportStorage {
	return &ReportStorage{db: db, logger: logger}
}

// StoreReport inserts a generated report
func (s *ReportStorage) StoreReport(ctx context.Context, report *models.Report) error {
	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID
func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := s.db.Store().Get(id, &report); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("report not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// GetRecentReports returns the newest reports of a kind first
func (s *ReportStorage) GetRecentReports(ctx context.Context, kind models.ReportKind, limit int) ([]*models.Report, error) {
	var reports []*models.Report
	if err := s.db.Store().Find(&reports, badgerhold.Where("Kind").Eq(kind)); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})

	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}
