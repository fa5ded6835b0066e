package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contentkit/finder/internal/config"
	"github.com/contentkit/finder/internal/errors"
	"github.com/contentkit/finder/internal/filter"
	"github.com/contentkit/finder/internal/model"
	"github.com/contentkit/finder/internal/taxonomy"
)

// Index runs the core transform for one category row and upserts the
// resulting entry.
//
// Disabled extensions and trashed rows are successful no-ops (trashed rows
// additionally have their entry removed). The transform is deterministic
// for fixed inputs, so indexing the same row twice leaves the stored entry
// unchanged.
func (a *Adapter) Index(ctx context.Context, row *model.CategoryNode) error {
	// Administrative switches: the adapter itself, and the extension
	// owning this particular category.
	if !a.status.IsEnabled(a.opts.Extension) {
		slog.Debug("index_skipped_adapter_disabled",
			slog.Int64("category_id", row.ID),
			slog.String("extension", a.opts.Extension))
		return nil
	}
	if row.Extension != "" && !a.status.IsEnabled(config.OwnerElement(row.Extension)) {
		slog.Debug("index_skipped_owner_disabled",
			slog.Int64("category_id", row.ID),
			slog.String("extension", row.Extension))
		return nil
	}

	stableID := a.StableID(row.ID)
	language := taxonomy.Language(row.Language)

	// Effective visibility needs the ancestor chain; a trashed result is
	// terminal and maps to removal.
	resolved, err := a.resolveNode(ctx, row)
	if err != nil {
		return err
	}
	if resolved.State == model.StateTrashed {
		if err := a.index.Remove(ctx, stableID); err != nil {
			return errors.IndexStoreError(fmt.Sprintf("remove trashed %s", stableID), err)
		}
		return nil
	}

	summary, err := a.filter.Prepare(row.Description, filter.Params{
		"language": language,
	})
	if err != nil {
		return errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("prepare content of category %d", row.ID), err)
	}

	entry := &model.IndexEntry{
		StableID:  stableID,
		ContentID: row.ID,
		Extension: a.opts.Extension,
		Layout:    a.opts.Layout,

		Title:    row.Title,
		Summary:  summary,
		Language: language,

		State:      resolved.State,
		Access:     resolved.Access,
		Suppressed: resolved.Suppressed,

		MetaAuthor:   row.MetaAuthor(),
		MetaKeywords: row.Metadata["metakey"],
		MetaDesc:     row.Metadata["metadesc"],
	}

	entry.Route = a.routes.Resolve(row.ID, config.OwnerElement(row.Extension), language)

	// Cosmetic override: a menu item pointing at this entry wins over
	// the stored title. Never identity-affecting.
	if a.opts.UseMenuTitle {
		menuTitle, err := a.store.MenuTitle(ctx, stableID)
		if err != nil {
			return errors.CategoryStoreError(fmt.Sprintf("menu title for %s", stableID), err)
		}
		if menuTitle != "" {
			entry.Title = menuTitle
		}
	}

	a.tagger.Tag(entry)

	if a.opts.Extras != nil {
		if err := a.opts.Extras(ctx, entry); err != nil {
			return errors.New(errors.ErrCodeInternal,
				fmt.Sprintf("content extras for %s", stableID), err)
		}
	}

	if err := a.index.Upsert(ctx, entry); err != nil {
		return errors.IndexStoreError(fmt.Sprintf("upsert %s", stableID), err)
	}

	slog.Debug("category_indexed",
		slog.Int64("category_id", row.ID),
		slog.String("stable_id", stableID),
		slog.String("state", resolved.State.String()))
	return nil
}
