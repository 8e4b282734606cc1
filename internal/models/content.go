package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.New().String()
}

// ContentStatus tracks an item through the pipeline. Transitions are
// monotonic: new -> processed -> notified -> archived.
type ContentStatus string

const (
	ContentStatusNew       ContentStatus = "new"
	ContentStatusProcessed ContentStatus = "processed"
	ContentStatusNotified  ContentStatus = "notified"
	ContentStatusArchived  ContentStatus = "archived"
)

// statusRank orders content statuses for monotonicity checks
var statusRank = map[ContentStatus]int{
	ContentStatusNew:       0,
	ContentStatusProcessed: 1,
	ContentStatusNotified:  2,
	ContentStatusArchived:  3,
}

// CanTransition reports whether a status change is a legal lifecycle step:
// one stage forward at a time, except archiving, which is allowed from any
// earlier stage.
func (s ContentStatus) CanTransition(to ContentStatus) bool {
	if s == ContentStatusArchived {
		return false
	}
	if to == ContentStatusArchived {
		return true
	}
	return statusRank[to] == statusRank[s]+1
}

// Entities holds named entities extracted during enrichment
type Entities struct {
	Companies    []string `json:"companies,omitempty"`
	People       []string `json:"people,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Content is one collected item, keyed for dedup by ContentHash
type Content struct {
	ID       string `json:"id" badgerhold:"key"`
	SourceID string `json:"source_id" badgerhold:"index"`

	URL   string `json:"url"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`

	// SHA-256(url || title || body), hex lower. Unique across the store.
	ContentHash string `json:"content_hash" badgerhold:"unique"`

	// Enrichment fields, populated once status >= processed
	Summary         string    `json:"summary,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	Entities        Entities  `json:"entities,omitempty"`
	Sentiment       string    `json:"sentiment,omitempty"`
	RelevanceScore  *float64  `json:"relevance_score,omitempty"`
	ImportanceScore *float64  `json:"importance_score,omitempty"`
	KeyTopics       []string  `json:"key_topics,omitempty"`

	MatchedKeywords      []string `json:"matched_keywords,omitempty"`
	MatchedKeywordGroups []string `json:"matched_keyword_groups,omitempty"`

	Status ContentStatus `json:"status" badgerhold:"index"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	CollectedAt time.Time  `json:"collected_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
}

// ContentHash computes the dedup hash for a collected item:
// SHA-256 over url || title || body, hex-encoded lower-case.
func ContentHashOf(url, title, body string) string {
	sum := sha256.Sum256([]byte(url + title + body))
	return hex.EncodeToString(sum[:])
}

// NewContent constructs a content item in status new with its hash computed
func NewContent(sourceID, url, title, body string) *Content {
	return &Content{
		ID:          newID(),
		SourceID:    sourceID,
		URL:         url,
		Title:       title,
		Body:        body,
		ContentHash: ContentHashOf(url, title, body),
		Status:      ContentStatusNew,
		CollectedAt: time.Now(),
	}
}

// ClampScore bounds a model-reported score into [0,1]
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
