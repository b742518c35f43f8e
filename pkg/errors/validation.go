package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// fontIDRegex is the permissive character class used for family directories
// under google/fonts/ofl.
var fontIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateFontID checks that id only contains letters, digits, hyphen and
// underscore. Nothing beyond the character class is enforced.
func ValidateFontID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidFontID, "font id cannot be empty")
	}
	if !fontIDRegex.MatchString(id) {
		return New(ErrCodeInvalidFontID, "invalid font id: %q", id)
	}
	return nil
}

// ValidatePath validates a cask path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// ValidateURLTemplate validates a metadata URL template. It must be a valid
// http(s) URL and contain placeholder exactly once.
func ValidateURLTemplate(tmpl, placeholder string) error {
	if err := ValidateURL(tmpl); err != nil {
		return err
	}
	switch n := strings.Count(tmpl, placeholder); n {
	case 1:
		return nil
	case 0:
		return New(ErrCodeInvalidInput, "URL template must contain %s", placeholder)
	default:
		return New(ErrCodeInvalidInput, "URL template contains %s %d times", placeholder, n)
	}
}
