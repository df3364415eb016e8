package helpers

import "strings"

// NilIfBlank trims s and returns nil when nothing is left
func NilIfBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// TrimmedOrEmpty dereferences and trims s
func TrimmedOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
