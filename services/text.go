package services

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
)

// normalizeName trims and NFC-normalises admin supplied display names so that visually
// identical names compare equal.
func normalizeName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// seasonSlug derives the asset key prefix for a season.
func seasonSlug(name string) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return "season"
}
