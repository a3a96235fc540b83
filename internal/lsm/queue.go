// Package lsm implements the two-batch update queue described in §4.5:
// a pending-adds batch and a pending-deletes batch, each a
// singly-linked FIFO guarded by its own short-critical-section lock,
// coalesced and applied by the index on commit.
//
// The link-list mechanics are borrowed from gods' linkedlistqueue
// rather than hand-rolled, the way go-git/go-git/v5 itself pulls in
// gods for its own linked structures rather than writing one.
package lsm

import (
	"sync"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Op distinguishes a queued add from a queued delete.
type Op int

const (
	OpAdd Op = iota
	OpDel
)

// Pending is one queued mutation: a path to add or delete, and for adds
// the freshly allocated FileId (deletes resolve their id at commit time
// via the path cache).
type Pending struct {
	Op   Op
	Path string
	ID   uint64
}

// Batch is one of the two lock-protected queues (pending_adds,
// pending_dels). Node payloads are immutable once linked; only the
// queue's own head/tail/count state is touched under lock.
type Batch struct {
	mu sync.Mutex
	q  *linkedlistqueue.Queue
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch {
	return &Batch{q: linkedlistqueue.New()}
}

// Push links a new pending mutation onto the batch's tail.
func (b *Batch) Push(p Pending) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.q.Enqueue(p)
}

// Len returns the number of pending mutations currently queued.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.q.Size()
}

// Swap atomically replaces the batch's contents with a fresh empty
// queue and returns everything that was queued, in FIFO order.
// Producers may continue pushing to the new empty queue immediately
// after Swap returns, even while the caller is still processing the
// drained slice.
func (b *Batch) Swap() []Pending {
	b.mu.Lock()
	old := b.q
	b.q = linkedlistqueue.New()
	b.mu.Unlock()

	out := make([]Pending, 0, old.Size())
	for {
		v, ok := old.Dequeue()
		if !ok {
			break
		}
		out = append(out, v.(Pending))
	}
	return out
}
