package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateRepoPath validates a repository path received from an untrusted
// source, such as a server query parameter.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 500 characters
//
// Whether the path actually holds a repository is checked separately when
// it is opened.
func ValidateRepoPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidRepo, "repository path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidRepo, "repository path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidRepo, "repository path contains invalid characters")
		}
	}

	return nil
}

// ValidateRefName validates a short ref name against the rules git itself
// enforces (a subset of git-check-ref-format).
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 256 characters
//   - No control characters, spaces, or null bytes
//   - No "..", "//", "@{", or "\" sequences
//   - Cannot start with "-" or "/", cannot end with "/", ".", or ".lock"
func ValidateRefName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRef, "ref name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidRef, "ref name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || r == ' ' {
			return New(ErrCodeInvalidRef, "ref name contains invalid characters")
		}
	}

	forbidden := []string{"..", "//", "@{", "\\", "\x00"}
	for _, pattern := range forbidden {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidRef, "ref name contains invalid sequence: %q", pattern)
		}
	}

	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidRef, "ref name cannot start with %q", name[:1])
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") {
		return New(ErrCodeInvalidRef, "ref name cannot end with %q", name[len(name)-1:])
	}
	if strings.HasSuffix(name, ".lock") {
		return New(ErrCodeInvalidRef, "ref name cannot end with .lock")
	}

	return nil
}

// ValidatePath validates a file path within a served directory for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// slugRegex matches "owner/name" GitHub repository slugs.
var slugRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*/[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSlug validates an "owner/name" repository slug.
func ValidateSlug(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidInput, "slug cannot be empty")
	}

	if !slugRegex.MatchString(slug) {
		return New(ErrCodeInvalidInput, "invalid repository slug: %q", slug)
	}

	return nil
}
