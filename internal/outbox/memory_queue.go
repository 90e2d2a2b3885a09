package outbox

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is a Queue held in process memory
type MemoryQueue struct {
	mu     sync.Mutex
	ops    []Op
	nextID int64
	now    func() time.Time
}

// NewMemoryQueue creates an empty MemoryQueue
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{nextID: 1, now: time.Now}
}

// Enqueue appends ops in order
func (q *MemoryQueue) Enqueue(ctx context.Context, ops ...Op) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, op := range ops {
		op.ID = q.nextID
		q.nextID++
		if op.CreatedAt.IsZero() {
			op.CreatedAt = q.now().UTC()
		}
		q.ops = append(q.ops, op)
	}
	return nil
}

// Pending returns a copy of the queued ops, oldest first
func (q *MemoryQueue) Pending(ctx context.Context) ([]Op, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Op, len(q.ops))
	copy(out, q.ops)
	return out, nil
}

// Remove deletes the op with the given id. Unknown ids are ignored.
func (q *MemoryQueue) Remove(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.ops {
		if q.ops[i].ID == id {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return nil
		}
	}
	return nil
}

// MarkFailed records a failed attempt on the op
func (q *MemoryQueue) MarkFailed(ctx context.Context, id int64, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.ops {
		if q.ops[i].ID == id {
			q.ops[i].Attempts++
			q.ops[i].LastError = reason
			return nil
		}
	}
	return nil
}

// Len returns the number of queued ops
func (q *MemoryQueue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops), nil
}

// Clear drops every queued op
func (q *MemoryQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = nil
	return nil
}
