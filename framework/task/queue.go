package task

import (
	"slices"
	"sync"
)

// Queue is an ordered set of task ids. It is safe for concurrent use.
type Queue struct {
	mu  sync.Mutex
	ids []string
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends id. It returns false if id is already queued.
func (q *Queue) Enqueue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if slices.Contains(q.ids, id) {
		return false
	}
	q.ids = append(q.ids, id)
	return true
}

// Dequeue removes id wherever it is. It returns false if id wasn't queued.
func (q *Queue) Dequeue(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := slices.Index(q.ids, id)
	if i < 0 {
		return false
	}
	q.ids = slices.Delete(q.ids, i, i+1)
	return true
}

// List returns a snapshot of the queued ids in order.
func (q *Queue) List() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.ids))
	copy(out, q.ids)
	return out
}

// Len returns the number of queued ids.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}
