// Package utils provides utility functions for the application.
package utils

// ToPtr returns a pointer to v, for optional model and DTO fields.
func ToPtr[T any](v T) *T {
	return &v
}

// IsTrue reports whether b is non-nil and true.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
