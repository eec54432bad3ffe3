package installer

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrInvalidSlug is returned for a slug outside the allowed character set.
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrPathEscape is returned when a derived path leaves its root.
	ErrPathEscape = errors.New("path escapes its root directory")
)

const maxSlugLen = 128

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_.][a-z0-9]+)*$`)

// ValidateSlug accepts lowercase alphanumerics separated by single '-', '_'
// or '.' characters. Anything else, including path separators and "..", is
// rejected.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLen || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// containedPath joins root and name and verifies the result is a strict
// descendant of root.
func containedPath(root, name string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	p := filepath.Join(absRoot, name)
	rel, err := filepath.Rel(absRoot, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s is not inside %s", ErrPathEscape, p, absRoot)
	}
	return p, nil
}
