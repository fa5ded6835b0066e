package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/contentkit/finder/internal/model"
)

// maxTreeDepth bounds ancestor walks so a corrupted parent cycle cannot
// loop forever.
const maxTreeDepth = 64

const categorySchema = `
CREATE TABLE IF NOT EXISTS categories (
    id          INTEGER PRIMARY KEY,
    parent_id   INTEGER NOT NULL DEFAULT 0,
    lft         INTEGER NOT NULL DEFAULT 0,
    level       INTEGER NOT NULL DEFAULT 0,
    published   INTEGER NOT NULL DEFAULT 0,
    access      INTEGER NOT NULL DEFAULT 1,
    extension   TEXT NOT NULL DEFAULT '',
    language    TEXT NOT NULL DEFAULT '*',
    title       TEXT NOT NULL DEFAULT '',
    alias       TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    metadata    TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id);
CREATE INDEX IF NOT EXISTS idx_categories_lft ON categories(lft);

CREATE TABLE IF NOT EXISTS menu (
    link  TEXT PRIMARY KEY,
    title TEXT NOT NULL
);
`

// CategoryStore reads and writes category tree rows backed by SQLite.
type CategoryStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// OpenCategoryStore opens (or creates) the category database at path.
// An empty path creates an in-memory store for testing.
// Uses WAL mode for concurrent multi-process access.
func OpenCategoryStore(path string) (*CategoryStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		// _busy_timeout handles lock contention gracefully
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite; set pragmas explicitly
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(categorySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &CategoryStore{db: db}, nil
}

const categoryColumns = `id, parent_id, lft, level, published, access,
       extension, language, title, alias, description, metadata`

func scanCategory(row interface{ Scan(...any) error }) (*model.CategoryNode, error) {
	var n model.CategoryNode
	var state int
	var metadata string
	err := row.Scan(&n.ID, &n.ParentID, &n.Lft, &n.Level, &state, &n.Access,
		&n.Extension, &n.Language, &n.Title, &n.Alias, &n.Description, &metadata)
	if err != nil {
		return nil, err
	}
	n.State = model.State(state)
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &n.Metadata); err != nil {
			return nil, fmt.Errorf("metadata for category %d is corrupt: %w", n.ID, err)
		}
	}
	return &n, nil
}

// GetNode returns the row for id, or (nil, nil) when no row exists.
func (s *CategoryStore) GetNode(ctx context.Context, id int64) (*model.CategoryNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("category store is closed")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	n, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load category %d: %w", id, err)
	}
	return n, nil
}

// AncestorChain returns the rows from the root down to the node's parent,
// ordered root first. Children of the root get an empty chain.
func (s *CategoryStore) AncestorChain(ctx context.Context, id int64) ([]model.CategoryNode, error) {
	node, err := s.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}

	var chain []model.CategoryNode
	parentID := node.ParentID
	for depth := 0; parentID > 0; depth++ {
		if depth >= maxTreeDepth {
			return nil, fmt.Errorf("ancestor chain for category %d exceeds depth %d (cycle?)", id, maxTreeDepth)
		}
		parent, err := s.GetNode(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		chain = append(chain, *parent)
		if parent.IsRoot() {
			break
		}
		parentID = parent.ParentID
	}

	// Walked leaf-to-root; callers expect root first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Descendants returns every category in the subtree rooted at id,
// excluding id itself, in tree order.
func (s *CategoryStore) Descendants(ctx context.Context, id int64) ([]model.CategoryNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("category store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `
WITH RECURSIVE subtree(id) AS (
    SELECT id FROM categories WHERE parent_id = ?
    UNION ALL
    SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
)
SELECT `+categoryColumns+` FROM categories
WHERE id IN (SELECT id FROM subtree)
ORDER BY lft`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query subtree of %d: %w", id, err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

// List returns every indexable category row (the root sentinel excluded)
// in tree order. Used by full rebuilds.
func (s *CategoryStore) List(ctx context.Context) ([]model.CategoryNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("category store is closed")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id > ? ORDER BY lft`,
		model.RootCategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

func collectCategories(rows *sql.Rows) ([]model.CategoryNode, error) {
	var out []model.CategoryNode
	for rows.Next() {
		n, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// SaveNode inserts or replaces a category row.
func (s *CategoryStore) SaveNode(ctx context.Context, n *model.CategoryNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("category store is closed")
	}

	metadata := "{}"
	if len(n.Metadata) > 0 {
		raw, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for category %d: %w", n.ID, err)
		}
		metadata = string(raw)
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO categories (id, parent_id, lft, level, published, access,
                        extension, language, title, alias, description, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    parent_id=excluded.parent_id, lft=excluded.lft, level=excluded.level,
    published=excluded.published, access=excluded.access,
    extension=excluded.extension, language=excluded.language,
    title=excluded.title, alias=excluded.alias,
    description=excluded.description, metadata=excluded.metadata`,
		n.ID, n.ParentID, n.Lft, n.Level, int(n.State), n.Access,
		n.Extension, n.Language, n.Title, n.Alias, n.Description, metadata)
	if err != nil {
		return fmt.Errorf("failed to save category %d: %w", n.ID, err)
	}
	return nil
}

// MenuTitle returns the title of the menu item pointing at link, or ""
// when no menu item matches.
func (s *CategoryStore) MenuTitle(ctx context.Context, link string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", fmt.Errorf("category store is closed")
	}

	var title string
	err := s.db.QueryRowContext(ctx,
		`SELECT title FROM menu WHERE link = ?`, link).Scan(&title)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up menu title: %w", err)
	}
	return title, nil
}

// SetMenuTitle inserts or replaces the menu item for link.
func (s *CategoryStore) SetMenuTitle(ctx context.Context, link, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("category store is closed")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO menu (link, title) VALUES (?, ?)
ON CONFLICT(link) DO UPDATE SET title=excluded.title`, link, title)
	if err != nil {
		return fmt.Errorf("failed to save menu title: %w", err)
	}
	return nil
}

// Close releases the underlying database. Safe to call multiple times.
func (s *CategoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
