package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// SourceKind identifies the crawl strategy for a source
type SourceKind string

const (
	SourceKindFeed    SourceKind = "feed"    // RSS 2.0 / Atom feed
	SourceKindHTML    SourceKind = "html"    // Selector-driven article list page
	SourceKindChannel SourceKind = "channel" // Video platform channel feed
	SourceKindSearch  SourceKind = "search"  // Search-result / bid-board table page
	SourceKindAPI     SourceKind = "api"     // JSON API endpoint
)

// SourceStatus tracks the health of a source
type SourceStatus string

const (
	SourceStatusActive   SourceStatus = "active"
	SourceStatusInactive SourceStatus = "inactive"
	SourceStatusError    SourceStatus = "error"
	SourceStatusPending  SourceStatus = "pending"
)

// MaxSourceErrors is the error-count threshold that pauses a source
const MaxSourceErrors = 3

var validate = validator.New()

// Source is a configured crawl target
type Source struct {
	ID   string     `json:"id" badgerhold:"key"`
	Name string     `json:"name" validate:"required"`
	URL  string     `json:"url" validate:"required,url"`
	Kind SourceKind `json:"kind" validate:"required,oneof=feed html channel search api"`

	Status SourceStatus `json:"status"`

	// Extraction configuration (selectors, headers, base_url). Opaque to
	// consumers; interpreted by the crawler package.
	Config               map[string]interface{} `json:"config,omitempty"`
	CrawlIntervalMinutes int                    `json:"crawl_interval_minutes" validate:"gte=1"`

	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	ErrorCount    int        `json:"error_count"`
	LastError     string     `json:"last_error,omitempty"`

	// AI-generated config from self-healing. Takes effect on the crawl
	// after the one that produced it.
	AIGeneratedConfig map[string]interface{} `json:"ai_generated_config,omitempty"`
	ConfigVersion     int                    `json:"config_version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSource constructs a source with defaults applied
func NewSource(name, url string, kind SourceKind) *Source {
	now := time.Now()
	return &Source{
		ID:                   newID(),
		Name:                 name,
		URL:                  url,
		Kind:                 kind,
		Status:               SourceStatusPending,
		CrawlIntervalMinutes: 60,
		ConfigVersion:        1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Validate checks the source before admission into storage
func (s *Source) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}
	return nil
}

// RecordSuccess resets error accounting after a successful crawl
func (s *Source) RecordSuccess(at time.Time) {
	s.LastCrawledAt = &at
	s.LastSuccessAt = &at
	s.ErrorCount = 0
	s.LastError = ""
	s.Status = SourceStatusActive
	s.UpdatedAt = at
}

// RecordFailure increments error accounting and pauses the source once the
// threshold is reached.
func (s *Source) RecordFailure(at time.Time, errMsg string) {
	s.LastCrawledAt = &at
	s.ErrorCount++
	s.LastError = errMsg
	if s.ErrorCount >= MaxSourceErrors {
		s.Status = SourceStatusError
	}
	s.UpdatedAt = at
}

// ApplyHealedConfig stores an AI-generated selector config and bumps the
// monotonic config version.
func (s *Source) ApplyHealedConfig(config map[string]interface{}) {
	s.AIGeneratedConfig = config
	s.ConfigVersion++
	s.UpdatedAt = time.Now()
}

// Due reports whether the source is eligible for crawling at the given time.
// Sources in error state stay paused until manually reset.
func (s *Source) Due(now time.Time) bool {
	if s.Status == SourceStatusError || s.Status == SourceStatusInactive {
		return false
	}
	if s.LastCrawledAt == nil {
		return true
	}
	interval := time.Duration(s.CrawlIntervalMinutes) * time.Minute
	return now.Sub(*s.LastCrawledAt) >= interval
}
