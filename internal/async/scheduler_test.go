package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentkit/finder/internal/model"
)

type staticTree struct {
	children map[int64][]model.CategoryNode
}

func (s *staticTree) Descendants(ctx context.Context, id int64) ([]model.CategoryNode, error) {
	return s.children[id], nil
}

type recorder struct {
	mu  sync.Mutex
	ids []int64
}

func (r *recorder) reindex(ctx context.Context, node *model.CategoryNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, node.ID)
	return nil
}

func (r *recorder) seen() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

func TestRunSubtree(t *testing.T) {
	tree := &staticTree{children: map[int64][]model.CategoryNode{
		2: {{ID: 3}, {ID: 4}, {ID: 5}},
	}}
	rec := &recorder{}
	s := NewScheduler(tree, rec.reindex, Config{Workers: 2})

	require.NoError(t, s.RunSubtree(context.Background(), 2))
	assert.ElementsMatch(t, []int64{3, 4, 5}, rec.seen())
}

func TestRunSubtreeEmpty(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(&staticTree{children: map[int64][]model.CategoryNode{}}, rec.reindex, Config{})

	require.NoError(t, s.RunSubtree(context.Background(), 2))
	assert.Empty(t, rec.seen())
}

func TestScheduleProcessesInBackground(t *testing.T) {
	tree := &staticTree{children: map[int64][]model.CategoryNode{
		7: {{ID: 8}, {ID: 9}},
	}}
	rec := &recorder{}
	s := NewScheduler(tree, rec.reindex, Config{})

	s.Start(context.Background())
	defer s.Stop()

	s.Schedule(7)

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []int64{8, 9}, rec.seen())
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler(&staticTree{}, (&recorder{}).reindex, Config{})
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}

func TestRestartAfterStop(t *testing.T) {
	tree := &staticTree{children: map[int64][]model.CategoryNode{
		7: {{ID: 8}},
	}}
	rec := &recorder{}
	s := NewScheduler(tree, rec.reindex, Config{})

	s.Start(context.Background())
	s.Stop()

	s.Start(context.Background())
	defer s.Stop()

	s.Schedule(7)
	require.Eventually(t, func() bool {
		return len(rec.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{8}, rec.seen())
}

func TestScheduleReturnsAfterContextCancel(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(&staticTree{}, rec.reindex, Config{Workers: 1, QueueSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := int64(0); i < 16; i++ {
			s.Schedule(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Schedule blocked after the run loop exited")
	}
	s.Stop()
}
