package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/contentkit/finder/internal/model"
)

// textDocument is the document shape stored in Bleve. Only the searchable
// fields go here; everything else lives in the links table.
type textDocument struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// SearchHit is one full-text match.
type SearchHit struct {
	StableID string
	Score    float64
}

func openTextIndex(path string) (bleve.Index, error) {
	mapping := bleve.NewIndexMapping()

	if path == "" {
		idx, err := bleve.NewMemOnly(mapping)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory text index: %w", err)
		}
		return idx, nil
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, mapping)
	} else if err != nil && isCorruptionError(err) {
		slog.Warn("text_index_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))

		// Clear and recreate; entries are rebuilt on the next reindex.
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("text index corrupted, cannot clear: %w (original: %v)", removeErr, err)
		}
		slog.Info("text_index_cleared",
			slog.String("path", path),
			slog.String("reason", "open failed with corruption, please reindex"))

		idx, err = bleve.New(path, mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open text index: %w", err)
	}
	return idx, nil
}

// isCorruptionError checks if an error indicates Bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// indexText writes the searchable fields of entry into Bleve under the
// entry's stable id. Caller holds the write lock.
func (x *Index) indexText(entry *model.IndexEntry) error {
	tags := make([]string, 0, len(entry.Tags))
	for _, t := range entry.Tags {
		tags = append(tags, t.Dimension+":"+t.Value)
	}
	doc := textDocument{
		Title:   entry.Title,
		Summary: entry.Summary,
		Tags:    tags,
	}
	if err := x.text.Index(entry.StableID, doc); err != nil {
		return fmt.Errorf("failed to index text for %s: %w", entry.StableID, err)
	}
	return nil
}

// Search returns entries matching the query, best first. The ranking model
// is Bleve's; this layer only keys hits back to stable ids.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, fmt.Errorf("index is closed")
	}

	if strings.TrimSpace(query) == "" {
		return []SearchHit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit

	result, err := x.text.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, SearchHit{StableID: hit.ID, Score: hit.Score})
	}
	return hits, nil
}
