package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentkit/finder/internal/model"
)

func seedTree(t *testing.T) *CategoryStore {
	t.Helper()
	s, err := OpenCategoryStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	nodes := []model.CategoryNode{
		{ID: 1, ParentID: 0, Lft: 0, Level: 0, State: model.StatePublished, Access: 1},
		{ID: 2, ParentID: 1, Lft: 1, Level: 1, State: model.StatePublished, Access: 1, Title: "News", Alias: "news"},
		{ID: 3, ParentID: 2, Lft: 2, Level: 2, State: model.StatePublished, Access: 2, Title: "Sports"},
		{ID: 4, ParentID: 3, Lft: 3, Level: 3, State: model.StateUnpublished, Access: 1, Title: "Archive"},
		{ID: 5, ParentID: 1, Lft: 5, Level: 1, State: model.StatePublished, Access: 1, Title: "About"},
	}
	for i := range nodes {
		require.NoError(t, s.SaveNode(context.Background(), &nodes[i]))
	}
	return s
}

func TestGetNode(t *testing.T) {
	s := seedTree(t)
	ctx := context.Background()

	n, err := s.GetNode(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "News", n.Title)
	assert.Equal(t, model.StatePublished, n.State)

	// Absent rows are (nil, nil), not an error.
	n, err = s.GetNode(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestGetNodeMetadataRoundTrip(t *testing.T) {
	s := seedTree(t)
	ctx := context.Background()

	in := &model.CategoryNode{
		ID: 20, ParentID: 1, State: model.StatePublished, Access: 1,
		Metadata: map[string]string{"author": "jdoe", "metakey": "news,sports"},
	}
	require.NoError(t, s.SaveNode(ctx, in))

	out, err := s.GetNode(ctx, 20)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "jdoe", out.MetaAuthor())
	assert.Equal(t, "news,sports", out.Metadata["metakey"])
}

func TestAncestorChain(t *testing.T) {
	s := seedTree(t)
	ctx := context.Background()

	chain, err := s.AncestorChain(ctx, 4)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	// Ordered root first.
	assert.Equal(t, int64(1), chain[0].ID)
	assert.Equal(t, int64(2), chain[1].ID)
	assert.Equal(t, int64(3), chain[2].ID)

	// A child of the root has only the root above it.
	chain, err = s.AncestorChain(ctx, 2)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, int64(1), chain[0].ID)

	// Unknown rows have no chain.
	chain, err = s.AncestorChain(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestDescendants(t *testing.T) {
	s := seedTree(t)
	ctx := context.Background()

	nodes, err := s.Descendants(ctx, 2)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, int64(3), nodes[0].ID)
	assert.Equal(t, int64(4), nodes[1].ID)

	nodes, err = s.Descendants(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestListExcludesRoot(t *testing.T) {
	s := seedTree(t)

	nodes, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 4)
	for _, n := range nodes {
		assert.NotEqual(t, model.RootCategoryID, n.ID)
	}
	// Tree order by lft.
	assert.Equal(t, int64(2), nodes[0].ID)
}

func TestMenuTitle(t *testing.T) {
	s := seedTree(t)
	ctx := context.Background()

	title, err := s.MenuTitle(ctx, "ext_categories:category:2")
	require.NoError(t, err)
	assert.Empty(t, title)

	require.NoError(t, s.SetMenuTitle(ctx, "ext_categories:category:2", "Latest News"))
	title, err = s.MenuTitle(ctx, "ext_categories:category:2")
	require.NoError(t, err)
	assert.Equal(t, "Latest News", title)

	// Replacing is an upsert.
	require.NoError(t, s.SetMenuTitle(ctx, "ext_categories:category:2", "All News"))
	title, err = s.MenuTitle(ctx, "ext_categories:category:2")
	require.NoError(t, err)
	assert.Equal(t, "All News", title)
}

func TestSlug(t *testing.T) {
	s := seedTree(t)
	ctx := context.Background()

	withAlias, err := s.GetNode(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "2:news", withAlias.Slug())

	withoutAlias, err := s.GetNode(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "3", withoutAlias.Slug())
}

func TestClosedStore(t *testing.T) {
	s, err := OpenCategoryStore("")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close must be idempotent")

	_, err = s.GetNode(context.Background(), 1)
	assert.Error(t, err)
}
