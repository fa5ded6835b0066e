// Package taxonomy attaches classification tags to index entries.
package taxonomy

import "github.com/contentkit/finder/internal/model"

// DefaultLanguage is the wildcard language tag used when a row carries no
// language of its own.
const DefaultLanguage = "*"

// Tagger builds the taxonomy tag set for category entries.
//
// The content-type dimension is fixed; extra fixed dimensions can be added
// for deployments that facet on more than type and language.
type Tagger struct {
	typeValue string
	extra     []model.Tag
}

// NewTagger returns a tagger labelling entries with the given content
// type, e.g. "Category".
func NewTagger(typeValue string, extra ...model.Tag) *Tagger {
	return &Tagger{typeValue: typeValue, extra: extra}
}

// Language normalizes a row language to its taxonomy value.
func Language(lang string) string {
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

// Tag attaches the type and language taxonomy tags to entry.
func (t *Tagger) Tag(entry *model.IndexEntry) {
	entry.Tags = append(entry.Tags,
		model.Tag{Dimension: model.TaxonomyType, Value: t.typeValue},
		model.Tag{Dimension: model.TaxonomyLanguage, Value: Language(entry.Language)},
	)
	entry.Tags = append(entry.Tags, t.extra...)
}
