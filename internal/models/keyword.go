package models

import (
	"fmt"
	"time"
)

// KeywordGroup is a named taxonomy bucket owning its keywords
type KeywordGroup struct {
	ID          string    `json:"id" badgerhold:"key"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Keyword belongs to exactly one group. The canonical form is unique within
// its group; matching is case-insensitive and whole-word.
type Keyword struct {
	ID       string   `json:"id" badgerhold:"key"`
	GroupID  string   `json:"group_id" badgerhold:"index" validate:"required"`
	Keyword  string   `json:"keyword" validate:"required"`
	Synonyms []string `json:"synonyms,omitempty"`
	Weight   float64  `json:"weight" validate:"gt=0"`
	IsActive bool     `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}

// NewKeywordGroup constructs an active group
func NewKeywordGroup(name, description string) *KeywordGroup {
	now := time.Now()
	return &KeywordGroup{
		ID:          newID(),
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewKeyword constructs a keyword with default weight 1.0
func NewKeyword(groupID, canonical string, synonyms []string) *Keyword {
	return &Keyword{
		ID:        newID(),
		GroupID:   groupID,
		Keyword:   canonical,
		Synonyms:  synonyms,
		Weight:    1.0,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}

// Validate checks the keyword before admission into storage
func (k *Keyword) Validate() error {
	if err := validate.Struct(k); err != nil {
		return fmt.Errorf("invalid keyword: %w", err)
	}
	return nil
}

// MatchKind labels how a keyword was matched against text
type MatchKind string

const (
	MatchKindExact    MatchKind = "exact"    // canonical whole-word hit, score 1.0
	MatchKindSynonym  MatchKind = "synonym"  // synonym whole-word hit, score 0.9
	MatchKindSemantic MatchKind = "semantic" // model-reported relevance
)

// MatchResult is a value describing one keyword hit
type MatchResult struct {
	Keyword      string    `json:"keyword"`
	KeywordGroup string    `json:"keyword_group"`
	MatchKind    MatchKind `json:"match_kind"`
	Score        float64   `json:"score"`
	MatchedText  string    `json:"matched_text,omitempty"`
}
