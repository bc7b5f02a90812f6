package service

import (
	"regexp"
	"strings"
)

// Template placeholders. Substitution is literal and global; the template
// is caller-supplied text, not a programmable template language.
const (
	PlaceholderToken     = "$API_TOKEN"
	PlaceholderHost      = "$API_HOST"
	PlaceholderTitleSlug = "$GRAIN_TITLE_SLUG"
)

var (
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugInvalid    = regexp.MustCompile(`[^\w-]`)
	slugDashRuns   = regexp.MustCompile(`-{2,}`)
)

// Render substitutes every placeholder occurrence in template. The token
// only ever appears in output that stays behind the handoff boundary.
func Render(template, token, host, title string) string {
	out := strings.ReplaceAll(template, PlaceholderToken, token)
	out = strings.ReplaceAll(out, PlaceholderHost, host)
	out = strings.ReplaceAll(out, PlaceholderTitleSlug, Slug(title))
	return out
}

// Slug derives a filesystem/URL-safe identifier from a display title.
// Deterministic and idempotent: Slug(Slug(x)) == Slug(x).
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
