package change_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentkit/finder/internal/change"
	"github.com/contentkit/finder/internal/model"
	"github.com/contentkit/finder/internal/store"
)

func newTree(t *testing.T) *store.CategoryStore {
	t.Helper()
	s, err := store.OpenCategoryStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	nodes := []model.CategoryNode{
		{ID: 1, ParentID: 0, Lft: 0, Level: 0, State: model.StatePublished, Access: 1},
		{ID: 10, ParentID: 1, Lft: 1, Level: 1, State: model.StatePublished, Access: 1, Title: "Parent"},
		{ID: 11, ParentID: 10, Lft: 2, Level: 2, State: model.StatePublished, Access: 1, Title: "Child"},
	}
	for i := range nodes {
		require.NoError(t, s.SaveNode(context.Background(), &nodes[i]))
	}
	return s
}

func TestCaptureBeforeSaveExistingRow(t *testing.T) {
	s := newTree(t)
	d := change.NewDetector(s)

	snap, err := d.CaptureBeforeSave(context.Background(), 11)
	require.NoError(t, err)
	require.True(t, snap.Found)
	require.Equal(t, 1, snap.PriorAccess)
	require.Equal(t, 1, snap.PriorAncestorAccess)
}

func TestNewItemAlwaysNoChange(t *testing.T) {
	s := newTree(t)
	d := change.NewDetector(s)
	ctx := context.Background()

	snap, err := d.CaptureBeforeSave(ctx, 999)
	require.NoError(t, err)
	require.False(t, snap.Found)

	// Even a row that already carries a non-default access reports no
	// change against an empty snapshot.
	row := &model.CategoryNode{ID: 999, ParentID: 10, Access: 7, State: model.StatePublished}
	chg, err := d.EvaluateAfterSave(ctx, row, snap)
	require.NoError(t, err)
	require.False(t, chg.AccessChanged)
	require.False(t, chg.AncestorAccessChanged)
}

func TestAccessChanged(t *testing.T) {
	s := newTree(t)
	d := change.NewDetector(s)
	ctx := context.Background()

	snap, err := d.CaptureBeforeSave(ctx, 11)
	require.NoError(t, err)

	row := &model.CategoryNode{ID: 11, ParentID: 10, Access: 3, State: model.StatePublished}
	require.NoError(t, s.SaveNode(ctx, row))

	chg, err := d.EvaluateAfterSave(ctx, row, snap)
	require.NoError(t, err)
	require.True(t, chg.AccessChanged)
	require.False(t, chg.AncestorAccessChanged)
}

func TestAncestorAccessChanged(t *testing.T) {
	s := newTree(t)
	d := change.NewDetector(s)
	ctx := context.Background()

	snap, err := d.CaptureBeforeSave(ctx, 11)
	require.NoError(t, err)

	// Restrict the parent between capture and evaluation: the child's
	// ancestor-derived access now differs from the snapshot.
	parent, err := s.GetNode(ctx, 10)
	require.NoError(t, err)
	parent.Access = 5
	require.NoError(t, s.SaveNode(ctx, parent))

	row, err := s.GetNode(ctx, 11)
	require.NoError(t, err)

	chg, err := d.EvaluateAfterSave(ctx, row, snap)
	require.NoError(t, err)
	require.False(t, chg.AccessChanged)
	require.True(t, chg.AncestorAccessChanged)
}

func TestBothChangesAtOnce(t *testing.T) {
	s := newTree(t)
	d := change.NewDetector(s)
	ctx := context.Background()

	snap, err := d.CaptureBeforeSave(ctx, 11)
	require.NoError(t, err)

	parent, err := s.GetNode(ctx, 10)
	require.NoError(t, err)
	parent.Access = 5
	require.NoError(t, s.SaveNode(ctx, parent))

	row, err := s.GetNode(ctx, 11)
	require.NoError(t, err)
	row.Access = 2
	require.NoError(t, s.SaveNode(ctx, row))

	chg, err := d.EvaluateAfterSave(ctx, row, snap)
	require.NoError(t, err)
	require.True(t, chg.AccessChanged)
	require.True(t, chg.AncestorAccessChanged)
}
