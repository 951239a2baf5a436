package engine

import (
	"strings"

	"github.com/google/uuid"
)

// Entities created optimistically carry a session-local placeholder id until
// the backing store confirms the create and assigns the real one. Local and
// server ids share one string keyspace; the prefix is the only marker, and
// IsLocalID is the only place that checks it.
const localIDPrefix = "local-"

// NewLocalID returns a fresh session-local placeholder id.
func NewLocalID() string {
	return localIDPrefix + uuid.New().String()
}

// IsLocalID reports whether id is a session-local placeholder.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}
