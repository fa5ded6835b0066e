// Package filter prepares raw stored markup for indexing.
//
// The pipeline treats content preparation as an opaque service; this is
// the default implementation. It expands nothing itself: shortcodes are
// dropped, markup is stripped, entities decoded, whitespace collapsed.
// Deployments with richer preparation plug in their own implementation.
package filter

import (
	"html"
	"regexp"
	"strings"
)

// Params carries per-row preparation options, opaque key/value pairs
// forwarded from the row configuration.
type Params map[string]string

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	shortcodePattern = regexp.MustCompile(`\{[a-zA-Z][^}]*\}`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// Plain is the default content filter.
type Plain struct{}

// Prepare converts raw stored markup into indexable text.
func (Plain) Prepare(raw string, _ Params) (string, error) {
	text := shortcodePattern.ReplaceAllString(raw, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text), nil
}
