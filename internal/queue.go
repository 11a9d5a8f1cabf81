package internal

import (
	"sync"
	"time"
)

// Batch is the unit of atomic application: every operation enqueued between
// two commit markers.
type Batch struct {
	ID              int64
	CommitStartTime time.Time
	LayoutTime      time.Duration
	// when the producer closed the batch
	DispatchedAt time.Time

	Ops []Operation
}

// OperationQueue buffers operations from the producer until the ui goroutine
// drains them batch by batch. It is unbounded: a slow consumer makes batches
// pile up, it never blocks the producer.
type OperationQueue struct {
	mu sync.Mutex

	// the batch currently being filled by the producer
	open []Operation

	// closed batches waiting for the ui goroutine, oldest first
	batches []*Batch

	closed bool
}

func NewOperationQueue() *OperationQueue {
	return &OperationQueue{
		open:    make([]Operation, 0),
		batches: make([]*Batch, 0),
	}
}

// Enqueue appends op to the open batch. It returns false once the queue is
// closed, in which case the caller owns op again.
func (q *OperationQueue) Enqueue(op Operation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.open = append(q.open, op)
	return true
}

// Prepend puts op at the head of the open batch.
func (q *OperationQueue) Prepend(op Operation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.open = append(q.open, nil)
	copy(q.open[1:], q.open)
	q.open[0] = op
	return true
}

// MarkBatchEnd closes the open batch. Operations enqueued afterwards form the
// next batch.
func (q *OperationQueue) MarkBatchEnd(id int64, commitStart time.Time, layoutTime time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.batches = append(q.batches, &Batch{
		ID:              id,
		CommitStartTime: commitStart,
		LayoutTime:      layoutTime,
		DispatchedAt:    time.Now(),
		Ops:             q.open,
	})
	// fresh slice, the drained batch owns the old backing array
	q.open = make([]Operation, 0)
	return true
}

// DrainOneBatch detaches the oldest closed batch.
func (q *OperationQueue) DrainOneBatch() (*Batch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.batches) == 0 {
		return nil, false
	}

	batch := q.batches[0]
	q.batches[0] = nil
	q.batches = q.batches[1:]
	if len(q.batches) == 0 {
		q.batches = make([]*Batch, 0)
	}
	return batch, true
}

// IsEmpty reports whether no closed batch is pending.
func (q *OperationQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches) == 0
}

// Len is the number of closed batches waiting.
func (q *OperationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches)
}

// Close stops accepting operations and hands back everything still queued,
// closed batches first, then the unterminated tail.
func (q *OperationQueue) Close() []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	var rest []Operation
	for _, b := range q.batches {
		rest = append(rest, b.Ops...)
	}
	rest = append(rest, q.open...)

	q.batches = nil
	q.open = nil
	return rest
}
