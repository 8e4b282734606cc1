package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashOf(t *testing.T) {
	a := ContentHashOf("https://example.com/a", "Title", "Body")
	b := ContentHashOf("https://example.com/a", "Title", "Body")
	assert.Equal(t, a, b, "hash is deterministic")
	assert.Len(t, a, 64)
	assert.Equal(t, strings.ToLower(a), a, "hex lower-case")

	assert.NotEqual(t, a, ContentHashOf("https://example.com/b", "Title", "Body"))
	assert.NotEqual(t, a, ContentHashOf("https://example.com/a", "Other", "Body"))
	assert.NotEqual(t, a, ContentHashOf("https://example.com/a", "Title", "Other"))
}

func TestContentHashOf_KnownVector(t *testing.T) {
	// sha256 of the empty string; empty fields still produce a stable hash
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHashOf("", "", ""))
}

func TestNewContent_Defaults(t *testing.T) {
	c := NewContent("src-1", "https://example.com/a", "Title", "Body")

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, ContentStatusNew, c.Status)
	assert.Equal(t, ContentHashOf("https://example.com/a", "Title", "Body"), c.ContentHash)
	assert.False(t, c.CollectedAt.IsZero())
	assert.Nil(t, c.ProcessedAt)
	assert.Nil(t, c.NotifiedAt)
}

func TestStatusTransitions_AreMonotonic(t *testing.T) {
	cases := []struct {
		from, to ContentStatus
		ok       bool
	}{
		{ContentStatusNew, ContentStatusProcessed, true},
		{ContentStatusProcessed, ContentStatusNotified, true},
		{ContentStatusNotified, ContentStatusArchived, true},
		{ContentStatusNew, ContentStatusArchived, true},
		{ContentStatusProcessed, ContentStatusArchived, true},
		{ContentStatusNew, ContentStatusNotified, false}, // no stage skipping
		{ContentStatusProcessed, ContentStatusNew, false},
		{ContentStatusNotified, ContentStatusProcessed, false},
		{ContentStatusArchived, ContentStatusNotified, false},
		{ContentStatusArchived, ContentStatusArchived, false},
		{ContentStatusNew, ContentStatusNew, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-0.3))
	assert.Equal(t, 1.0, ClampScore(1.7))
	assert.Equal(t, 0.42, ClampScore(0.42))
}
