// Package store provides the persistence layer: category tree rows in
// SQLite and the search index (entry rows in SQLite, searchable text in
// Bleve).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/contentkit/finder/internal/model"
)

const linkSchema = `
CREATE TABLE IF NOT EXISTS links (
    stable_id     TEXT PRIMARY KEY,
    content_id    INTEGER NOT NULL,
    extension     TEXT NOT NULL,
    layout        TEXT NOT NULL,
    title         TEXT NOT NULL DEFAULT '',
    summary       TEXT NOT NULL DEFAULT '',
    route         TEXT NOT NULL DEFAULT '',
    language      TEXT NOT NULL DEFAULT '*',
    state         INTEGER NOT NULL DEFAULT 0,
    access        INTEGER NOT NULL DEFAULT 1,
    suppressed    INTEGER NOT NULL DEFAULT 0,
    tags          TEXT NOT NULL DEFAULT '[]',
    meta_author   TEXT NOT NULL DEFAULT '',
    meta_keywords TEXT NOT NULL DEFAULT '',
    meta_desc     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_links_extension ON links(extension);
`

// Index is the persistent search index. Entry rows live in SQLite (the
// links table); title/summary/tags are additionally indexed in Bleve for
// full-text retrieval. Both sides are keyed by the entry's stable id, so
// writes are idempotent upserts and at most one current entry exists per
// stable id.
type Index struct {
	mu     sync.RWMutex
	db     *sql.DB
	text   bleve.Index
	closed bool
}

// OpenIndex opens (or creates) the search index under dir. An empty dir
// creates an in-memory index for testing.
func OpenIndex(dir string) (*Index, error) {
	var (
		dsn       string
		blevePath string
	)
	if dir == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = filepath.Join(dir, "links.db")
		blevePath = filepath.Join(dir, "text.bleve")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open links database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite; set pragmas explicitly
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(linkSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create links schema: %w", err)
	}

	text, err := openTextIndex(blevePath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Index{db: db, text: text}, nil
}

// Upsert inserts or replaces the entry under its stable id.
func (x *Index) Upsert(ctx context.Context, entry *model.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return fmt.Errorf("index is closed")
	}
	if entry.StableID == "" {
		return fmt.Errorf("entry has no stable id")
	}

	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags for %s: %w", entry.StableID, err)
	}

	_, err = x.db.ExecContext(ctx, `
INSERT INTO links (stable_id, content_id, extension, layout, title, summary,
                   route, language, state, access, suppressed, tags,
                   meta_author, meta_keywords, meta_desc)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(stable_id) DO UPDATE SET
    content_id=excluded.content_id, extension=excluded.extension,
    layout=excluded.layout, title=excluded.title, summary=excluded.summary,
    route=excluded.route, language=excluded.language, state=excluded.state,
    access=excluded.access, suppressed=excluded.suppressed,
    tags=excluded.tags, meta_author=excluded.meta_author,
    meta_keywords=excluded.meta_keywords, meta_desc=excluded.meta_desc`,
		entry.StableID, entry.ContentID, entry.Extension, entry.Layout,
		entry.Title, entry.Summary, entry.Route, entry.Language,
		int(entry.State), entry.Access, boolToInt(entry.Suppressed),
		string(tags), entry.MetaAuthor, entry.MetaKeywords, entry.MetaDesc)
	if err != nil {
		return fmt.Errorf("failed to upsert entry %s: %w", entry.StableID, err)
	}

	if err := x.indexText(entry); err != nil {
		return err
	}

	slog.Debug("index_entry_upserted",
		slog.String("stable_id", entry.StableID),
		slog.String("state", entry.State.String()))
	return nil
}

// Remove deletes the entry for stableID. Removing an absent id is a no-op.
func (x *Index) Remove(ctx context.Context, stableID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return fmt.Errorf("index is closed")
	}

	if _, err := x.db.ExecContext(ctx,
		`DELETE FROM links WHERE stable_id = ?`, stableID); err != nil {
		return fmt.Errorf("failed to remove entry %s: %w", stableID, err)
	}
	if err := x.text.Delete(stableID); err != nil {
		return fmt.Errorf("failed to remove text for %s: %w", stableID, err)
	}

	slog.Debug("index_entry_removed", slog.String("stable_id", stableID))
	return nil
}

// PatchState overwrites only the stored state of an existing entry. Fast
// path for bulk state changes; the fuller re-index follows separately.
func (x *Index) PatchState(ctx context.Context, stableID string, state model.State) error {
	return x.patch(ctx, stableID, "state", int(state))
}

// PatchAccess overwrites only the stored access level of an existing entry.
func (x *Index) PatchAccess(ctx context.Context, stableID string, access int) error {
	return x.patch(ctx, stableID, "access", access)
}

func (x *Index) patch(ctx context.Context, stableID, column string, value int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return fmt.Errorf("index is closed")
	}

	// column is one of the fixed names above, never caller input.
	_, err := x.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE links SET %s = ? WHERE stable_id = ?`, column),
		value, stableID)
	if err != nil {
		return fmt.Errorf("failed to patch %s of %s: %w", column, stableID, err)
	}
	return nil
}

// Get returns the entry stored under stableID, or (nil, nil) when absent.
func (x *Index) Get(ctx context.Context, stableID string) (*model.IndexEntry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, fmt.Errorf("index is closed")
	}

	row := x.db.QueryRowContext(ctx, `
SELECT stable_id, content_id, extension, layout, title, summary, route,
       language, state, access, suppressed, tags, meta_author,
       meta_keywords, meta_desc
FROM links WHERE stable_id = ?`, stableID)

	var e model.IndexEntry
	var state, suppressed int
	var tags string
	err := row.Scan(&e.StableID, &e.ContentID, &e.Extension, &e.Layout,
		&e.Title, &e.Summary, &e.Route, &e.Language, &state, &e.Access,
		&suppressed, &tags, &e.MetaAuthor, &e.MetaKeywords, &e.MetaDesc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry %s: %w", stableID, err)
	}
	e.State = model.State(state)
	e.Suppressed = suppressed != 0
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("tags for %s are corrupt: %w", stableID, err)
	}
	return &e, nil
}

// RemoveByExtension deletes every entry owned by extension and returns the
// number of entries removed. Used when an extension is switched off.
func (x *Index) RemoveByExtension(ctx context.Context, extension string) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return 0, fmt.Errorf("index is closed")
	}

	rows, err := x.db.QueryContext(ctx,
		`SELECT stable_id FROM links WHERE extension = ?`, extension)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate entries of %s: %w", extension, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if _, err := x.db.ExecContext(ctx,
		`DELETE FROM links WHERE extension = ?`, extension); err != nil {
		return 0, fmt.Errorf("failed to remove entries of %s: %w", extension, err)
	}

	batch := x.text.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := x.text.Batch(batch); err != nil {
		return 0, fmt.Errorf("failed to remove text entries of %s: %w", extension, err)
	}

	slog.Info("index_extension_removed",
		slog.String("extension", extension),
		slog.Int("entries", len(ids)))
	return len(ids), nil
}

// Count returns the number of stored entries.
func (x *Index) Count(ctx context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return 0, fmt.Errorf("index is closed")
	}

	var n int
	if err := x.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Close releases both index sides. Safe to call multiple times.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true

	dbErr := x.db.Close()
	textErr := x.text.Close()
	if dbErr != nil {
		return dbErr
	}
	return textErr
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
