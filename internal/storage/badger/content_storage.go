package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/argusintel/argus/internal/models"
)

// ContentStorage implements content persistence on Badger. The content
// hash carries a unique index, making SaveIfNew the single dedup gate.
type ContentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewContentStorage creates a new content storage instance
func NewContentStorage(db *BadgerDB, logger arbor.ILogger) *ContentStorage {
	return &ContentStorage{db: db, logger: logger}
}

// SaveIfNew inserts the item unless a row with the same content hash
// already exists. Returns true when the item was inserted.
func (s *ContentStorage) SaveIfNew(ctx context.Context, content *models.Content) (bool, error) {
	err := s.db.Store().Insert(content.ID, content)
	if err != nil {
		if errors.Is(err, badgerhold.ErrUniqueExists) {
			s.logger.Debug().
				Str("content_hash", content.ContentHash).
				Str("url", content.URL).
				Msg("Duplicate content skipped")
			return false, nil
		}
		return false, fmt.Errorf("failed to save content: %w", err)
	}
	return true, nil
}

// GetContent retrieves a content item by ID
func (s *ContentStorage) GetContent(ctx context.Context, id string) (*models.Content, error) {
	var content models.Content
	if err := s.db.Store().Get(id, &content); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("content not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &content, nil
}

// GetContentByHash retrieves a content item by its dedup hash
func (s *ContentStorage) GetContentByHash(ctx context.Context, hash string) (*models.Content, error) {
	var items []*models.Content
	if err := s.db.Store().Find(&items, badgerhold.Where("ContentHash").Eq(hash)); err != nil {
		return nil, fmt.Errorf("failed to find content by hash: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("content not found for hash %s", hash)
	}
	return items[0], nil
}

// GetContentByStatus returns up to limit items in the given status, oldest
// collected first so batches drain in arrival order.
func (s *ContentStorage) GetContentByStatus(ctx context.Context, status models.ContentStatus, limit int) ([]*models.Content, error) {
	query := badgerhold.Where("Status").Eq(status).SortBy("CollectedAt")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var items []*models.Content
	if err := s.db.Store().Find(&items, query); err != nil {
		return nil, fmt.Errorf("failed to list content by status: %w", err)
	}
	return items, nil
}

// GetNotifiableContent returns up to limit processed items at or above the
// importance floor, oldest collected first. The floor applies before the
// limit, so processed items that never qualify cannot pin the batch and
// shadow newer qualifying ones. A floor of zero selects every processed item.
func (s *ContentStorage) GetNotifiableContent(ctx context.Context, minImportance float64, limit int) ([]*models.Content, error) {
	query := badgerhold.Where("Status").Eq(models.ContentStatusProcessed)
	if minImportance > 0 {
		query = query.And("ImportanceScore").MatchFunc(func(ra *badgerhold.RecordAccess) (bool, error) {
			score, ok := ra.Field().(*float64)
			return ok && score != nil && *score >= minImportance, nil
		})
	}
	query = query.SortBy("CollectedAt")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var items []*models.Content
	if err := s.db.Store().Find(&items, query); err != nil {
		return nil, fmt.Errorf("failed to list notifiable content: %w", err)
	}
	return items, nil
}

// GetContentBySource returns all items collected from one source
func (s *ContentStorage) GetContentBySource(ctx context.Context, sourceID string) ([]*models.Content, error) {
	var items []*models.Content
	if err := s.db.Store().Find(&items, badgerhold.Where("SourceID").Eq(sourceID)); err != nil {
		return nil, fmt.Errorf("failed to list content by source: %w", err)
	}
	return items, nil
}

// GetContentSince returns items collected at or after the given time
func (s *ContentStorage) GetContentSince(ctx context.Context, since time.Time) ([]*models.Content, error) {
	var items []*models.Content
	if err := s.db.Store().Find(&items, badgerhold.Where("CollectedAt").Ge(since).SortBy("CollectedAt")); err != nil {
		return nil, fmt.Errorf("failed to list content since %s: %w", since, err)
	}
	return items, nil
}

// UpdateContent overwrites an existing item
func (s *ContentStorage) UpdateContent(ctx context.Context, content *models.Content) error {
	if err := s.db.Store().Update(content.ID, content); err != nil {
		return fmt.Errorf("failed to update content: %w", err)
	}
	return nil
}

// MarkProcessed advances an item to processed. Backward transitions are
// rejected to keep the lifecycle monotonic.
func (s *ContentStorage) MarkProcessed(ctx context.Context, id string) error {
	return s.advance(ctx, id, models.ContentStatusProcessed, func(c *models.Content) {
		now := time.Now()
		c.ProcessedAt = &now
	})
}

// MarkNotified advances an item to notified
func (s *ContentStorage) MarkNotified(ctx context.Context, id string) error {
	return s.advance(ctx, id, models.ContentStatusNotified, func(c *models.Content) {
		now := time.Now()
		c.NotifiedAt = &now
	})
}

func (s *ContentStorage) advance(ctx context.Context, id string, to models.ContentStatus, stamp func(*models.Content)) error {
	content, err := s.GetContent(ctx, id)
	if err != nil {
		return err
	}
	if !content.Status.CanTransition(to) {
		return fmt.Errorf("invalid status transition %s -> %s for content %s", content.Status, to, id)
	}
	content.Status = to
	stamp(content)
	return s.UpdateContent(ctx, content)
}

// DeleteContent removes an item
func (s *ContentStorage) DeleteContent(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Content{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// CountContent returns the total number of stored items
func (s *ContentStorage) CountContent(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Content{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count content: %w", err)
	}
	return int(count), nil
}

// CountContentByStatus returns the number of items in a status
func (s *ContentStorage) CountContentByStatus(ctx context.Context, status models.ContentStatus) (int, error) {
	count, err := s.db.Store().Count(&models.Content{}, badgerhold.Where("Status").Eq(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count content by status: %w", err)
	}
	return int(count), nil
}
