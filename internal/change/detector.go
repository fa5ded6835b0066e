// Package change detects access-level changes across a category save.
//
// A save overwrites the row, so the "before" values must be captured as a
// snapshot while the old row is still readable. Comparing the snapshot to
// the saved row decides whether a re-index cascade is required.
package change

import (
	"context"

	"github.com/contentkit/finder/internal/model"
	"github.com/contentkit/finder/internal/visibility"
)

// CategoryReader is the slice of the category store the detector needs.
type CategoryReader interface {
	// GetNode returns the row for id, or (nil, nil) when no row exists.
	GetNode(ctx context.Context, id int64) (*model.CategoryNode, error)

	// AncestorChain returns the rows from the root down to the node's
	// parent, ordered root first. Empty for children of the root.
	AncestorChain(ctx context.Context, id int64) ([]model.CategoryNode, error)
}

// Snapshot holds the pre-save access values for one category.
// Request-scoped: captured in the before-save hook, consumed in the
// matching after-save hook, then discarded.
type Snapshot struct {
	CategoryID          int64
	Found               bool
	PriorAccess         int
	PriorAncestorAccess int
}

// Change is the outcome of comparing a saved row against its snapshot.
// Both flags may hold at once; the caller must act on both.
type Change struct {
	// AccessChanged: the row's own access level differs from the
	// snapshot. The entry itself needs its access re-persisted.
	AccessChanged bool

	// AncestorAccessChanged: the access derived from the ancestor chain
	// differs from the snapshot. Every descendant entry needs a
	// re-index.
	AncestorAccessChanged bool
}

// Detector captures and evaluates access snapshots.
type Detector struct {
	store CategoryReader
}

// NewDetector returns a detector reading from store.
func NewDetector(store CategoryReader) *Detector {
	return &Detector{store: store}
}

// CaptureBeforeSave reads the row's current access and its ancestor-derived
// access in one pass, before the save overwrites them.
//
// A missing row (the item is new) yields an empty snapshot; evaluation of
// an empty snapshot always reports no change.
func (d *Detector) CaptureBeforeSave(ctx context.Context, id int64) (Snapshot, error) {
	node, err := d.store.GetNode(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if node == nil {
		return Snapshot{CategoryID: id}, nil
	}

	ancestorAccess, err := d.ancestorAccess(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		CategoryID:          id,
		Found:               true,
		PriorAccess:         node.Access,
		PriorAncestorAccess: ancestorAccess,
	}, nil
}

// EvaluateAfterSave compares the saved row against the snapshot.
// The ancestor access is re-derived from the post-save tree so that parent
// moves are observed as ancestor changes too.
func (d *Detector) EvaluateAfterSave(ctx context.Context, row *model.CategoryNode, snap Snapshot) (Change, error) {
	if !snap.Found {
		return Change{}, nil
	}

	var c Change
	c.AccessChanged = row.Access != snap.PriorAccess

	ancestorAccess, err := d.ancestorAccess(ctx, row.ID)
	if err != nil {
		return Change{}, err
	}
	c.AncestorAccessChanged = ancestorAccess != snap.PriorAncestorAccess

	return c, nil
}

func (d *Detector) ancestorAccess(ctx context.Context, id int64) (int, error) {
	chain, err := d.store.AncestorChain(ctx, id)
	if err != nil {
		return 0, err
	}
	return visibility.ResolveChain(chain).Access, nil
}
