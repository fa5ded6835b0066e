// Package async schedules descendant re-index cascades in the background.
//
// The pipeline only signals that a subtree needs re-indexing; this
// scheduler enumerates the descendants and drives the re-index with
// bounded concurrency.
package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/contentkit/finder/internal/model"
)

// ReindexFunc re-indexes one category row.
type ReindexFunc func(ctx context.Context, node *model.CategoryNode) error

// SubtreeLister enumerates the categories below a node.
type SubtreeLister interface {
	Descendants(ctx context.Context, id int64) ([]model.CategoryNode, error)
}

// Config tunes the scheduler.
type Config struct {
	// Workers bounds concurrent re-index calls per cascade (default 4).
	Workers int
	// QueueSize bounds pending cascades before Schedule blocks (default 64).
	QueueSize int
}

// Scheduler runs subtree cascades on a background goroutine.
type Scheduler struct {
	store   SubtreeLister
	reindex ReindexFunc
	workers int

	jobs chan int64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler. Call Start before Schedule.
func NewScheduler(store SubtreeLister, reindex ReindexFunc, cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Scheduler{
		store:   store,
		reindex: reindex,
		workers: cfg.Workers,
		jobs:    make(chan int64, cfg.QueueSize),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins processing scheduled cascades. Non-blocking. A stopped
// scheduler can be started again; jobs queued in between are kept.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		select {
		case <-s.doneCh:
			// run loop exited on its own (context cancellation)
		default:
			return
		}
	}
	s.running = true
	select {
	case <-s.doneCh:
		// previous run finished; fresh channels for this one
		s.stopCh = make(chan struct{})
		s.doneCh = make(chan struct{})
	default:
	}
	stopCh, doneCh := s.stopCh, s.doneCh

	go func() {
		defer close(doneCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case id := <-s.jobs:
				if err := s.RunSubtree(ctx, id); err != nil {
					slog.Error("cascade_failed",
						slog.Int64("category_id", id),
						slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// Schedule queues a descendant cascade for the subtree rooted at id.
// Returns without queuing once the run loop has exited.
func (s *Scheduler) Schedule(id int64) {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	select {
	case s.jobs <- id:
	case <-stopCh:
	case <-doneCh:
	}
}

// RunSubtree re-indexes every descendant of id synchronously, with
// bounded concurrency. Also usable directly by callers that cannot wait
// for the background queue (tests, CLI rebuilds).
func (s *Scheduler) RunSubtree(ctx context.Context, id int64) error {
	nodes, err := s.store.Descendants(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to enumerate subtree of %d: %w", id, err)
	}
	if len(nodes) == 0 {
		return nil
	}

	slog.Info("cascade_started",
		slog.Int64("category_id", id),
		slog.Int("descendants", len(nodes)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range nodes {
		node := &nodes[i]
		g.Go(func() error {
			return s.reindex(gctx, node)
		})
	}
	return g.Wait()
}

// Stop halts the background goroutine and waits for it to exit.
// Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
}
