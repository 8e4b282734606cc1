package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/argusintel/argus/internal/models"
)

// KeywordStorage implements taxonomy persistence on Badger
type KeywordStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewKeywordStorage creates a new keyword storage instance
func NewKeywordStorage(db *BadgerDB, logger arbor.ILogger) *KeywordStorage {
	return &KeywordStorage{db: db, logger: logger}
}

// StoreGroup inserts or updates a keyword group
func (s *KeywordStorage) StoreGroup(ctx context.Context, group *models.KeywordGroup) error {
	group.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(group.ID, group); err != nil {
		return fmt.Errorf("failed to store keyword group: %w", err)
	}
	return nil
}

// GetGroup retrieves a keyword group by ID
func (s *KeywordStorage) GetGroup(ctx context.Context, id string) (*models.KeywordGroup, error) {
	var group models.KeywordGroup
	if err := s.db.Store().Get(id, &group); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("keyword group not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get keyword group: %w", err)
	}
	return &group, nil
}

// GetAllGroups returns every keyword group
func (s *KeywordStorage) GetAllGroups(ctx context.Context) ([]*models.KeywordGroup, error) {
	var groups []*models.KeywordGroup
	if err := s.db.Store().Find(&groups, nil); err != nil {
		return nil, fmt.Errorf("failed to list keyword groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup removes a group and its keywords
func (s *KeywordStorage) DeleteGroup(ctx context.Context, id string) error {
	if err := s.db.Store().DeleteMatching(&models.Keyword{}, badgerhold.Where("GroupID").Eq(id)); err != nil {
		return fmt.Errorf("failed to delete keywords of group: %w", err)
	}
	if err := s.db.Store().Delete(id, &models.KeywordGroup{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete keyword group: %w", err)
	}
	return nil
}

// StoreKeyword inserts or updates a keyword
func (s *KeywordStorage) StoreKeyword(ctx context.Context, keyword *models.Keyword) error {
	if err := s.db.Store().Upsert(keyword.ID, keyword); err != nil {
		return fmt.Errorf("failed to store keyword: %w", err)
	}
	return nil
}

// GetKeyword retrieves a keyword by ID
func (s *KeywordStorage) GetKeyword(ctx context.Context, id string) (*models.Keyword, error) {
	var keyword models.Keyword
	if err := s.db.Store().Get(id, &keyword); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("keyword not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get keyword: %w", err)
	}
	return &keyword, nil
}

// GetKeywordsByGroup returns all keywords of one group
func (s *KeywordStorage) GetKeywordsByGroup(ctx context.Context, groupID string) ([]*models.Keyword, error) {
	var keywords []*models.Keyword
	if err := s.db.Store().Find(&keywords, badgerhold.Where("GroupID").Eq(groupID)); err != nil {
		return nil, fmt.Errorf("failed to list keywords by group: %w", err)
	}
	return keywords, nil
}

// GetActiveKeywords returns all active keywords across groups
func (s *KeywordStorage) GetActiveKeywords(ctx context.Context) ([]*models.Keyword, error) {
	var keywords []*models.Keyword
	if err := s.db.Store().Find(&keywords, badgerhold.Where("IsActive").Eq(true)); err != nil {
		return nil, fmt.Errorf("failed to list active keywords: %w", err)
	}
	return keywords, nil
}

// DeleteKeyword removes a keyword
func (s *KeywordStorage) DeleteKeyword(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Keyword{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete keyword: %w", err)
	}
	return nil
}

// CountKeywords returns the total keyword count
func (s *KeywordStorage) CountKeywords(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Keyword{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count keywords: %w", err)
	}
	return int(count), nil
}
