package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contentkit/finder/internal/model"
)

func TestTagAttachesTypeAndLanguage(t *testing.T) {
	tagger := NewTagger("Category")
	entry := &model.IndexEntry{Language: "en"}

	tagger.Tag(entry)

	assert.Contains(t, entry.Tags, model.Tag{Dimension: model.TaxonomyType, Value: "Category"})
	assert.Contains(t, entry.Tags, model.Tag{Dimension: model.TaxonomyLanguage, Value: "en"})
}

func TestTagDefaultLanguage(t *testing.T) {
	tagger := NewTagger("Category")
	entry := &model.IndexEntry{}

	tagger.Tag(entry)

	assert.Contains(t, entry.Tags, model.Tag{Dimension: model.TaxonomyLanguage, Value: DefaultLanguage})
}

func TestTagExtraDimensions(t *testing.T) {
	extra := model.Tag{Dimension: "Region", Value: "EU"}
	tagger := NewTagger("Category", extra)
	entry := &model.IndexEntry{Language: "de"}

	tagger.Tag(entry)

	assert.Contains(t, entry.Tags, extra)
	assert.Len(t, entry.Tags, 3)
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "*", Language(""))
	assert.Equal(t, "en-GB", Language("en-GB"))
}
