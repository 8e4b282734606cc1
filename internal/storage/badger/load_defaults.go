package badger

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/argusintel/argus/internal/interfaces"
	"github.com/argusintel/argus/internal/models"
)

// LoadDefaultSources seeds the catalog sources on an empty store. Existing
// data is left untouched so operator edits survive restarts.
func LoadDefaultSources(ctx context.Context, storage interfaces.SourceStorage, logger arbor.ILogger) error {
	count, err := storage.CountSources(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seeded := 0
	for _, entry := range models.DefaultFeedSources {
		source := models.NewSource(entry.Name, entry.URL, models.SourceKindFeed)
		if err := storage.StoreSource(ctx, source); err != nil {
			logger.Warn().Str("name", entry.Name).Err(err).Msg("Failed to seed feed source")
			continue
		}
		seeded++
	}

	for _, entry := range models.DefaultChannelSources {
		source := models.NewSource(entry.Name, entry.URL, models.SourceKindChannel)
		source.CrawlIntervalMinutes = 180
		if err := storage.StoreSource(ctx, source); err != nil {
			logger.Warn().Str("name", entry.Name).Err(err).Msg("Failed to seed channel source")
			continue
		}
		seeded++
	}

	logger.Info().Int("count", seeded).Msg("Seeded default sources")
	return nil
}

// LoadDefaultTaxonomy seeds the keyword taxonomy on an empty store
func LoadDefaultTaxonomy(ctx context.Context, storage interfaces.KeywordStorage, logger arbor.ILogger) error {
	count, err := storage.CountKeywords(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seeded := 0
	for groupName, keywords := range models.DefaultKeywordTaxonomy {
		group := models.NewKeywordGroup(groupName, "")
		if err := storage.StoreGroup(ctx, group); err != nil {
			logger.Warn().Str("group", groupName).Err(err).Msg("Failed to seed keyword group")
			continue
		}

		for canonical, synonyms := range keywords {
			keyword := models.NewKeyword(group.ID, canonical, synonyms)
			if err := storage.StoreKeyword(ctx, keyword); err != nil {
				logger.Warn().Str("keyword", canonical).Err(err).Msg("Failed to seed keyword")
				continue
			}
			seeded++
		}
	}

	logger.Info().Int("count", seeded).Msg("Seeded default keyword taxonomy")
	return nil
}
