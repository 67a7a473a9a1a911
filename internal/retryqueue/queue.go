// Package retryqueue implements the capacity-bounded, persisted FIFO that
// holds failed event and profile records until the next successful network
// call drains them.
package retryqueue

import (
	"log/slog"
	"sync"

	"github.com/marketap/marketap-sdk-go/internal/kvstore"
)

// DefaultMaxStorageSize bounds queue growth during sustained connectivity
// loss. Oldest records are evicted first once the bound is hit.
const DefaultMaxStorageSize = 100

// Queue is a persisted FIFO of failed records of one record type.
//
// Every mutation is append-persist atomic: the in-memory slice is updated
// and written through to the store under one lock, so a crash between the
// two recovers to either the old or the new list, never a partial one.
//
// Thread-safety: all methods are safe for concurrent use. In practice the
// pipeline worker is the only writer.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	store   kvstore.Store
	key     string
	maxSize int
}

// New creates a queue persisted under key, restoring any records left over
// from a previous run. maxSize <= 0 selects DefaultMaxStorageSize.
func New[T any](store kvstore.Store, key string, maxSize int) *Queue[T] {
	if maxSize <= 0 {
		maxSize = DefaultMaxStorageSize
	}
	q := &Queue[T]{store: store, key: key, maxSize: maxSize}

	var persisted []T
	ok, err := kvstore.LoadJSON(store, key, &persisted)
	if err != nil {
		slog.Warn("retry queue: discarding unreadable persisted records",
			"key", key, "error", err)
	} else if ok {
		q.items = persisted
		q.trimLocked()
	}
	return q
}

// Push appends item and persists the new list, evicting the oldest entries
// first if the bound is exceeded.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	q.trimLocked()
	q.persistLocked()
}

// DrainAll atomically returns the current contents and clears storage.
// Used immediately before a bulk resend attempt.
func (q *Queue[T]) DrainAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	snapshot := q.items
	q.items = nil
	q.persistLocked()
	return snapshot
}

// Restore re-appends items after a failed bulk resend. Records pushed since
// the drain stay ahead of nothing: restored items go to the back, bounded by
// the same eviction rule.
func (q *Queue[T]) Restore(items []T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	q.trimLocked()
	q.persistLocked()
}

// Snapshot returns a non-destructive copy for diagnostics and tests.
func (q *Queue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the current queue length.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) trimLocked() {
	if over := len(q.items) - q.maxSize; over > 0 {
		q.items = append([]T(nil), q.items[over:]...)
	}
}

func (q *Queue[T]) persistLocked() {
	items := q.items
	if items == nil {
		items = []T{}
	}
	if err := kvstore.SaveJSON(q.store, q.key, items); err != nil {
		// Never fatal: the in-memory queue stays authoritative for this
		// process; only restart durability degrades.
		slog.Warn("retry queue: persist failed", "key", q.key, "error", err)
	}
}
