package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a new UUID string for entity identity
func NewID() string {
	return uuid.New().String()
}

// ShortID returns the first segment of a UUID, used in log correlation
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
