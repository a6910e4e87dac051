package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/muurk/luxws/internal/logging"
	"go.uber.org/zap"
)

// ErrNoSnapshot is returned when a merge arrives before any tree was
// published.
var ErrNoSnapshot = errors.New("no snapshot published")

// Listener receives the flattened leaves after every change to the store.
// Listeners run on the writer's goroutine and must not block.
type Listener func(leaves []Leaf, updated time.Time)

// Store publishes the current tree. Readers never observe a partially
// built tree; merges take the write lock and only overwrite leaf values.
type Store struct {
	mu        sync.RWMutex
	tree      *Tree
	updated   time.Time
	ready     chan struct{}
	readyOnce sync.Once

	listenersMu sync.Mutex
	listeners   []Listener

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		ready: make(chan struct{}),
		now:   time.Now,
	}
}

// Replace publishes a freshly parsed tree.
func (s *Store) Replace(t *Tree) {
	s.mu.Lock()
	s.tree = t
	s.updated = s.now()
	leaves := t.Flatten()
	updated := s.updated
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })

	logging.Debug("Snapshot replaced",
		zap.Int("items", t.Len()),
		zap.Int("leaves", len(leaves)),
	)
	s.notify(leaves, updated)
}

// Merge applies a values reply to the published tree. Per-item decode
// failures are logged and do not fail the merge.
func (s *Store) Merge(updates map[string]string, dec Decoder) (MergeResult, error) {
	s.mu.Lock()
	if s.tree == nil {
		s.mu.Unlock()
		return MergeResult{}, ErrNoSnapshot
	}
	res, errs := s.tree.Merge(updates, dec)
	s.updated = s.now()
	leaves := s.tree.Flatten()
	updated := s.updated
	s.mu.Unlock()

	for _, err := range errs {
		logging.Warn("Keeping previous value", zap.Error(err))
	}
	logging.Debug("Snapshot merged",
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("failed", res.Failed),
	)
	s.notify(leaves, updated)
	return res, nil
}

// Leaves returns the flattened leaves of the current tree, or nil before
// the first snapshot.
func (s *Store) Leaves() []Leaf {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return nil
	}
	return s.tree.Flatten()
}

// LastUpdated returns the time of the last replace or merge. It is the zero
// time before the first snapshot.
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// HasData reports whether a snapshot has been published.
func (s *Store) HasData() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until the first snapshot is published or ctx is done.
func (s *Store) Wait(ctx context.Context) ([]Leaf, time.Time, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return nil, time.Time{}, ctx.Err()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Flatten(), s.updated, nil
}

// Subscribe registers a listener for future changes.
func (s *Store) Subscribe(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(leaves []Leaf, updated time.Time) {
	s.listenersMu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(leaves, updated)
	}
}
