// Package pipeline orchestrates category lifecycle events into search
// index updates: resolving effective visibility from the ancestor chain,
// detecting access changes that require cascades, and running the
// normalize/tag/route transform that produces index entries.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/contentkit/finder/internal/change"
	"github.com/contentkit/finder/internal/errors"
	"github.com/contentkit/finder/internal/filter"
	"github.com/contentkit/finder/internal/model"
	"github.com/contentkit/finder/internal/route"
	"github.com/contentkit/finder/internal/taxonomy"
	"github.com/contentkit/finder/internal/visibility"
)

// Context kinds carried by lifecycle events. Events with any other kind
// are acknowledged and ignored, so new event sources never fail callers.
const (
	// ContextCategory marks events about category rows.
	ContextCategory = "categories.category"
	// ContextIndexLink marks events originating from the index itself,
	// addressed by stable id.
	ContextIndexLink = "finder.index"
	// ContextExtension marks enable/disable events for content
	// extensions.
	ContextExtension = "extensions.extension"
)

// CategoryStore is read access to the category tree.
type CategoryStore interface {
	GetNode(ctx context.Context, id int64) (*model.CategoryNode, error)
	AncestorChain(ctx context.Context, id int64) ([]model.CategoryNode, error)
	List(ctx context.Context) ([]model.CategoryNode, error)
	MenuTitle(ctx context.Context, link string) (string, error)
}

// IndexStore is the persistent search index.
type IndexStore interface {
	Upsert(ctx context.Context, entry *model.IndexEntry) error
	Remove(ctx context.Context, stableID string) error
	PatchState(ctx context.Context, stableID string, state model.State) error
	PatchAccess(ctx context.Context, stableID string, access int) error
	RemoveByExtension(ctx context.Context, extension string) (int, error)
}

// ContentFilter prepares raw stored markup for indexing.
type ContentFilter interface {
	Prepare(raw string, params filter.Params) (string, error)
}

// ExtensionStatus reports administrative enablement of extensions.
type ExtensionStatus interface {
	IsEnabled(extension string) bool
}

// CascadeScheduler accepts the signal that a subtree needs re-indexing.
// Enumerating and re-indexing the descendants is its concern, not the
// pipeline's.
type CascadeScheduler interface {
	Schedule(categoryID int64)
}

// ExtrasFunc is an optional extension hook run on each entry before it is
// persisted.
type ExtrasFunc func(ctx context.Context, entry *model.IndexEntry) error

// DeleteEvent addresses the entry to remove. Category events carry the
// category id; index-link events carry the stable id directly.
type DeleteEvent struct {
	CategoryID int64
	StableID   string
}

// StateChange is the payload of a bulk state-change event. Category
// events address rows by id; extension events name the extensions that
// were toggled.
type StateChange struct {
	CategoryIDs []int64
	Extensions  []string
	Value       model.State
}

// Options configures an Adapter.
type Options struct {
	// Extension is the adapter's own extension identifier, the owner of
	// every entry it writes. Part of each entry's stable id.
	Extension string

	// Layout is the presentation layout recorded on entries. Part of
	// the stable id.
	Layout string

	// TypeTitle is the content-type taxonomy value.
	TypeTitle string

	// UseMenuTitle substitutes a matching menu item's title for the
	// stored category title.
	UseMenuTitle bool

	// Extras is the optional per-entry enrichment hook.
	Extras ExtrasFunc
}

// Adapter is the indexing pipeline for one content type.
type Adapter struct {
	store     CategoryStore
	index     IndexStore
	filter    ContentFilter
	status    ExtensionStatus
	routes    *route.Resolver
	tagger    *taxonomy.Tagger
	scheduler CascadeScheduler
	detector  *change.Detector
	opts      Options

	mu      sync.Mutex
	pending map[int64]change.Snapshot
}

// NewAdapter wires the pipeline. A nil scheduler disables descendant
// cascades (the need is still logged); a nil filter uses the plain filter.
func NewAdapter(store CategoryStore, index IndexStore, status ExtensionStatus,
	routes *route.Resolver, scheduler CascadeScheduler, opts Options) *Adapter {
	if opts.Extension == "" {
		opts.Extension = "ext_categories"
	}
	if opts.Layout == "" {
		opts.Layout = "category"
	}
	if opts.TypeTitle == "" {
		opts.TypeTitle = "Category"
	}
	if routes == nil {
		routes = route.NewResolver(nil)
	}

	return &Adapter{
		store:     store,
		index:     index,
		filter:    filter.Plain{},
		status:    status,
		routes:    routes,
		tagger:    taxonomy.NewTagger(opts.TypeTitle),
		scheduler: scheduler,
		detector:  change.NewDetector(store),
		opts:      opts,
		pending:   make(map[int64]change.Snapshot),
	}
}

// SetFilter replaces the content-preparation filter.
func (a *Adapter) SetFilter(f ContentFilter) {
	if f != nil {
		a.filter = f
	}
}

// StableID returns the upsert identity the adapter uses for a category.
func (a *Adapter) StableID(categoryID int64) string {
	return model.StableID(categoryID, a.opts.Extension, a.opts.Layout)
}

// OnDelete removes the index entry for a deleted item. Unknown context
// kinds succeed without effect.
func (a *Adapter) OnDelete(ctx context.Context, contextKind string, ev DeleteEvent) error {
	var stableID string
	switch contextKind {
	case ContextCategory:
		stableID = a.StableID(ev.CategoryID)
	case ContextIndexLink:
		stableID = ev.StableID
	default:
		return nil
	}

	if err := a.index.Remove(ctx, stableID); err != nil {
		return errors.IndexStoreError(fmt.Sprintf("remove %s", stableID), err)
	}
	return nil
}

// OnBeforeSave captures the pre-save access snapshot for an update. New
// rows have no "before" and are skipped.
func (a *Adapter) OnBeforeSave(ctx context.Context, contextKind string, row *model.CategoryNode, isNew bool) error {
	if contextKind != ContextCategory || isNew {
		return nil
	}

	snap, err := a.detector.CaptureBeforeSave(ctx, row.ID)
	if err != nil {
		return errors.CategoryStoreError(fmt.Sprintf("snapshot category %d", row.ID), err)
	}

	a.mu.Lock()
	a.pending[row.ID] = snap
	a.mu.Unlock()
	return nil
}

// OnAfterSave re-indexes the saved row, then acts on any access change
// found against the before-save snapshot: the row's own entry gets its
// access re-persisted, and an ancestor-derived change schedules a
// descendant cascade.
func (a *Adapter) OnAfterSave(ctx context.Context, contextKind string, row *model.CategoryNode, isNew bool) error {
	if contextKind != ContextCategory {
		return nil
	}

	if err := a.Index(ctx, row); err != nil {
		return err
	}

	if isNew {
		return nil
	}

	a.mu.Lock()
	snap, ok := a.pending[row.ID]
	delete(a.pending, row.ID)
	a.mu.Unlock()
	if !ok {
		return nil
	}

	chg, err := a.detector.EvaluateAfterSave(ctx, row, snap)
	if err != nil {
		return errors.CategoryStoreError(fmt.Sprintf("evaluate category %d", row.ID), err)
	}

	if chg.AccessChanged {
		// The re-index above already stored the new access; patch it
		// again so the visible access is correct even if that write
		// only partially succeeded.
		resolved, err := a.resolveNode(ctx, row)
		if err != nil {
			return err
		}
		if err := a.index.PatchAccess(ctx, a.StableID(row.ID), resolved.Access); err != nil {
			return errors.IndexStoreError(fmt.Sprintf("patch access of %d", row.ID), err)
		}
	}

	if chg.AncestorAccessChanged {
		if a.scheduler != nil {
			a.scheduler.Schedule(row.ID)
		} else {
			slog.Warn("cascade_needed_but_unscheduled",
				slog.Int64("category_id", row.ID))
		}
	}

	return nil
}

// OnChangeState handles bulk state changes from the list view and
// extension enable/disable events. Unknown context kinds succeed without
// effect.
func (a *Adapter) OnChangeState(ctx context.Context, contextKind string, ev StateChange) error {
	switch contextKind {
	case ContextCategory:
		return a.changeCategoryState(ctx, ev)
	case ContextExtension:
		if ev.Value != model.StateUnpublished {
			return nil
		}
		return a.disableExtensions(ctx, ev.Extensions)
	default:
		return nil
	}
}

// changeCategoryState applies a requested state to each category. The
// ancestor state is read for all identities before any write, so rows in
// the same batch cannot observe each other's pending changes. Each row
// gets a prompt state-only patch, then a full re-index.
func (a *Adapter) changeCategoryState(ctx context.Context, ev StateChange) error {
	ancestorStates := make(map[int64]model.State, len(ev.CategoryIDs))
	for _, id := range ev.CategoryIDs {
		chain, err := a.store.AncestorChain(ctx, id)
		if err != nil {
			return errors.CategoryStoreError(fmt.Sprintf("ancestors of %d", id), err)
		}
		ancestorStates[id] = visibility.ResolveChain(chain).State
	}

	for _, id := range ev.CategoryIDs {
		applicable := visibility.Translate(ev.Value, ancestorStates[id])

		// Patch first so the visible state is corrected even if the
		// fuller re-index below is delayed or batched.
		if err := a.index.PatchState(ctx, a.StableID(id), applicable); err != nil {
			return errors.IndexStoreError(fmt.Sprintf("patch state of %d", id), err)
		}

		if err := a.Reindex(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// disableExtensions removes every entry owned by the named extensions.
func (a *Adapter) disableExtensions(ctx context.Context, extensions []string) error {
	for _, ext := range extensions {
		removed, err := a.index.RemoveByExtension(ctx, ext)
		if err != nil {
			return errors.IndexStoreError(fmt.Sprintf("disable %s", ext), err)
		}
		slog.Info("extension_disabled",
			slog.String("extension", ext),
			slog.Int("entries_removed", removed))
	}
	return nil
}

// Reindex loads the current row for id and indexes it. A missing row is a
// successful no-op.
func (a *Adapter) Reindex(ctx context.Context, id int64) error {
	node, err := a.store.GetNode(ctx, id)
	if err != nil {
		return errors.CategoryStoreError(fmt.Sprintf("load category %d", id), err)
	}
	if node == nil {
		return nil
	}
	return a.Index(ctx, node)
}

// RebuildAll indexes every category row. Used by full rebuilds.
func (a *Adapter) RebuildAll(ctx context.Context) (int, error) {
	nodes, err := a.store.List(ctx)
	if err != nil {
		return 0, errors.CategoryStoreError("list categories", err)
	}
	for i := range nodes {
		if err := a.Index(ctx, &nodes[i]); err != nil {
			return i, err
		}
	}
	return len(nodes), nil
}

// resolveNode computes the row's effective visibility from its ancestor
// chain.
func (a *Adapter) resolveNode(ctx context.Context, row *model.CategoryNode) (visibility.Resolved, error) {
	chain, err := a.store.AncestorChain(ctx, row.ID)
	if err != nil {
		return visibility.Resolved{}, errors.CategoryStoreError(
			fmt.Sprintf("ancestors of %d", row.ID), err)
	}
	ancestor := visibility.ResolveChain(chain)
	if row.IsRoot() {
		return visibility.ResolveRoot(row.Access), nil
	}
	return visibility.Resolve(row.State, row.Access, ancestor.State, ancestor.Access), nil
}
