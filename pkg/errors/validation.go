package errors

import (
	"strings"
	"unicode"
)

// ValidateEnvironmentPath validates a user-supplied environment path before
// it reaches the registry. It rejects inputs that could never name a real
// environment directory and inputs crafted for injection.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No null bytes or control characters
//   - Maximum length of 4096 characters
//
// Workspace-boundary enforcement is done separately by the Workspace Guard;
// this only rejects inputs that are malformed as paths.
func ValidateEnvironmentPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "environment path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "environment path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "environment path contains invalid control characters")
		}
	}

	return nil
}

// ValidateCustomName validates a custom display name supplied at registration.
// Names end up in registry files (one record per line, tab-separated), so
// tabs and newlines are structurally forbidden.
func ValidateCustomName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "custom name cannot be empty")
	}

	const maxNameLength = 128
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "custom name too long (max %d characters)", maxNameLength)
	}

	if strings.ContainsAny(name, "\t\n\r") {
		return New(ErrCodeInvalidInput, "custom name cannot contain tabs or newlines")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "custom name contains invalid control characters")
		}
	}

	return nil
}
