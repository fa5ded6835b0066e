// Package model defines the domain types shared across the indexing
// adapter: category tree rows, publication states, and index entries.
package model

import (
	"fmt"
	"strconv"
)

// State is the publication state stored on a category row.
type State int

const (
	// StateTrashed marks a row pending permanent deletion. Trashed rows
	// are removed from the index, never stored.
	StateTrashed State = -2
	// StateUnpublished hides a row and its subtree from search.
	StateUnpublished State = 0
	// StatePublished makes a row visible, provided every ancestor is
	// also published.
	StatePublished State = 1
	// StateArchived keeps a row retrievable under an archived view only.
	StateArchived State = 2
)

// String returns the lowercase state name for logging.
func (s State) String() string {
	switch s {
	case StateTrashed:
		return "trashed"
	case StateUnpublished:
		return "unpublished"
	case StatePublished:
		return "published"
	case StateArchived:
		return "archived"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RootCategoryID is the designated root sentinel of the category tree.
// It has no ancestors and always resolves as published and unrestricted.
const RootCategoryID int64 = 1

// CategoryNode is one row of the category tree.
type CategoryNode struct {
	ID       int64
	ParentID int64

	// Lft is the left value of the nested-set representation, used for
	// ordered traversal and subtree enumeration.
	Lft   int
	Level int

	State  State
	Access int

	// Extension identifies the owning content extension, e.g.
	// "ext_articles.category".
	Extension string

	Language    string
	Title       string
	Alias       string
	Description string

	// Metadata is the opaque per-row key/value map (author, meta
	// keywords, meta description).
	Metadata map[string]string
}

// IsRoot reports whether this node is the root sentinel.
func (c *CategoryNode) IsRoot() bool {
	return c.ID == RootCategoryID
}

// Slug returns the row's URL slug: "id:alias" when an alias is set,
// otherwise the bare id.
func (c *CategoryNode) Slug() string {
	if c.Alias != "" {
		return fmt.Sprintf("%d:%s", c.ID, c.Alias)
	}
	return strconv.FormatInt(c.ID, 10)
}

// MetaAuthor returns the author recorded in the row metadata, if any.
func (c *CategoryNode) MetaAuthor() string {
	return c.Metadata["author"]
}
