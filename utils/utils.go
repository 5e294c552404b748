// Package utils provides utility functions for the application.
package utils

import (
	"github.com/google/uuid"
)

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// ParseUUID parses a UUID string into a uuid.UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// ContextKey is the type for request-scoped context values
type ContextKey string

// RequestIDKey carries the request ID from handlers into flows for audit rows
const RequestIDKey ContextKey = "request_id"
