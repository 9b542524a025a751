package queue

import (
	"container/heap"
	"sync"

	"github.com/vaultd/vaultd/pkg/vaulterrors"
)

// Priority is a task's scheduling class. Lower values are serviced first.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "MEDIUM"
	}
}

// Prioritizable is satisfied by anything that can be ordered by the task
// queue: a priority class plus a submission sequence number for FIFO
// tiebreak within a class. TaskQueue stores values behind this interface so
// pkg/task's Task type (and tests) don't need to live in this package.
type Prioritizable interface {
	QueuePriority() Priority
	QueueSeq() uint64
}

// heapSlice is the container/heap backing store, ordered by (priority asc,
// seq asc) so the head always holds the lexicographically smallest key.
type heapSlice []Prioritizable

func (h heapSlice) Len() int { return len(h) }
func (h heapSlice) Less(i, j int) bool {
	if h[i].QueuePriority() != h[j].QueuePriority() {
		return h[i].QueuePriority() < h[j].QueuePriority()
	}
	return h[i].QueueSeq() < h[j].QueueSeq()
}
func (h heapSlice) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *heapSlice) Push(x any) {
	*h = append(*h, x.(Prioritizable))
}

func (h *heapSlice) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TaskQueue is a bounded priority queue ordered by (priority, submission
// order). It mirrors SocketQueue's blocking/shutdown semantics exactly —
// both are built on the same mutex-plus-two-conditions shape — but orders
// by a heap instead of FIFO slice indexing.
//
// Fairness is strict priority with no aging: a sustained stream of HIGH
// tasks can starve LOW tasks indefinitely. This is a deliberate scheduling
// choice, not an oversight.
type TaskQueue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items    heapSlice
	capacity int
	closed   bool
}

// NewTaskQueue creates a task queue with the given bounded capacity.
func NewTaskQueue(capacity int) *TaskQueue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &TaskQueue{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	heap.Init(&q.items)
	return q
}

// Enqueue adds a task to the queue, blocking while the queue is full.
func (q *TaskQueue) Enqueue(t Prioritizable) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return vaulterrors.ErrShutdown
	}

	heap.Push(&q.items, t)
	q.notEmpty.Signal()
	return nil
}

// Dequeue removes and returns the task with the smallest (priority, seq)
// key, blocking while the queue is empty.
func (q *TaskQueue) Dequeue() (Prioritizable, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return nil, vaulterrors.ErrShutdown
	}

	t := heap.Pop(&q.items).(Prioritizable)
	q.notFull.Signal()
	return t, nil
}

// Len returns the current number of queued tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue shut down and wakes every blocked Enqueue/Dequeue
// call. Unlike SocketQueue, remaining tasks are left for the caller to
// inspect via Drain rather than closed automatically — a task has no
// connection to release, only a waiting handler to notify, and the server
// lifecycle (pkg/server) is responsible for failing those waiters.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Drain removes and returns every task still queued after Close. It is
// used during shutdown to fail any submitted-but-undispatched tasks.
func (q *TaskQueue) Drain() []Prioritizable {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Prioritizable, 0, len(q.items))
	for len(q.items) > 0 {
		out = append(out, heap.Pop(&q.items).(Prioritizable))
	}
	return out
}
