package model

import "fmt"

// Taxonomy dimensions attached to every category entry.
const (
	TaxonomyType     = "Type"
	TaxonomyLanguage = "Language"
)

// Tag is one classification dimension/value pair on an index entry.
type Tag struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

// IndexEntry is the unit persisted to the search index.
//
// StableID is the upsert identity. It is built only from fields that
// survive renames (content id, extension, layout), so re-saving a row
// always replaces the prior entry instead of duplicating it.
type IndexEntry struct {
	StableID  string
	ContentID int64
	Extension string
	Layout    string

	Title    string
	Summary  string
	Route    string
	Language string

	State  State
	Access int

	// Suppressed is set when a non-published ancestor forces the entry
	// out of the published set regardless of its own state.
	Suppressed bool

	Tags []Tag

	MetaAuthor   string
	MetaKeywords string
	MetaDesc     string
}

// StableID builds the deterministic upsert identity for a content item.
// Mutable fields (title, alias) deliberately never participate.
func StableID(contentID int64, extension, layout string) string {
	return fmt.Sprintf("%s:%s:%d", extension, layout, contentID)
}
