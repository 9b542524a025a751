// Package queue implements the two bounded queues that sit between the
// acceptor, the handler pool, and the worker pool: a FIFO queue of accepted
// sockets, and a priority queue of file tasks.
package queue

import (
	"net"
	"sync"

	"github.com/vaultd/vaultd/pkg/vaulterrors"
)

// SocketQueue is a bounded FIFO queue of accepted client connections. It
// decouples the acceptor goroutine from the handler pool: the acceptor
// enqueues every accepted socket, and handlers dequeue one at a time.
//
// Blocking is implemented with two condition variables guarded by a single
// mutex, mirroring the upload/download coordination in the transfer
// manager's ioCond rather than a buffered channel, because Close must be
// able to wake every blocked waiter (enqueuers and dequeuers alike) in one
// broadcast and have them observe a distinguishable shutdown-abort result.
type SocketQueue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items    []net.Conn
	capacity int
	closed   bool
}

// NewSocketQueue creates a socket queue with the given bounded capacity.
func NewSocketQueue(capacity int) *SocketQueue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &SocketQueue{
		items:    make([]net.Conn, 0, capacity),
		capacity: capacity,
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a connection to the queue, blocking while the queue is full.
// Returns vaulterrors.ErrShutdown if Close is called while waiting or before
// the item could be admitted.
func (q *SocketQueue) Enqueue(conn net.Conn) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return vaulterrors.ErrShutdown
	}

	q.items = append(q.items, conn)
	q.notEmpty.Signal()
	return nil
}

// Dequeue removes and returns the oldest connection, blocking while the
// queue is empty. Returns vaulterrors.ErrShutdown once the queue has been
// closed and drained.
func (q *SocketQueue) Dequeue() (net.Conn, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return nil, vaulterrors.ErrShutdown
	}

	conn := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return conn, nil
}

// Len returns the current number of queued connections.
func (q *SocketQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue as shut down, wakes every blocked Enqueue/Dequeue
// call, and closes every connection still sitting in the queue. Safe to
// call more than once.
func (q *SocketQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	remaining := q.items
	q.items = nil
	q.mu.Unlock()

	q.notFull.Broadcast()
	q.notEmpty.Broadcast()

	for _, conn := range remaining {
		_ = conn.Close()
	}
}
