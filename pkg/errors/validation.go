package errors

import (
	"strings"
	"unicode"

	"github.com/scijava/javadoc-wrangler/pkg/gav"
)

// ValidateSegment validates one coordinate field for use as a path segment.
// Coordinates come from third-party POMs and end up as directory names under
// the site root, so anything that could escape or alias a directory is
// rejected:
//   - No empty values
//   - No control characters or null bytes
//   - No separators (/ or \)
//   - No "." or ".." segments
//   - Maximum length of 256 characters
func ValidateSegment(field, value string) error {
	if value == "" {
		return New(ErrCodeInvalidCoordinate, "%s cannot be empty", field)
	}

	if len(value) > 256 {
		return New(ErrCodeInvalidCoordinate, "%s too long (max 256 characters)", field)
	}

	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCoordinate, "%s contains invalid control characters", field)
		}
	}

	if strings.ContainsAny(value, "/\\") {
		return New(ErrCodeInvalidCoordinate, "%s cannot contain path separators: %q", field, value)
	}

	if value == "." || value == ".." {
		return New(ErrCodeInvalidCoordinate, "%s cannot be %q", field, value)
	}

	return nil
}

// ValidateCoordinate checks that every field of c is a safe, non-empty path
// segment.
func ValidateCoordinate(c gav.Coordinate) error {
	if err := ValidateSegment("groupId", c.GroupID); err != nil {
		return err
	}
	if err := ValidateSegment("artifactId", c.ArtifactID); err != nil {
		return err
	}
	return ValidateSegment("version", c.Version)
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
