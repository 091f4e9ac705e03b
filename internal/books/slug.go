package books

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugBase  = 200
	fallbackSlug = "book"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9_\s-]`)
	slugSeparators = regexp.MustCompile(`[-\s]+`)
)

// Slugify folds a title to ASCII and reduces it to lower-case words joined by hyphens.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(title) {
		if r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	value := strings.ToLower(b.String())
	value = slugDisallowed.ReplaceAllString(value, "")
	value = slugSeparators.ReplaceAllString(value, "-")
	return strings.Trim(value, "-_")
}

// slugBase returns the truncated slug used as the prefix for uniqueness suffixes.
func slugBase(title string) string {
	base := Slugify(title)
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-_")
	}
	if base == "" {
		return fallbackSlug
	}
	return base
}

// slugCandidate returns the n-th candidate for base: base, base-1, base-2, ...
func slugCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
