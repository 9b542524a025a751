package queue

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConn() net.Conn {
	c, _ := net.Pipe()
	return c
}

func TestSocketQueueFIFO(t *testing.T) {
	q := NewSocketQueue(4)
	a, b, c := pipeConn(), pipeConn(), pipeConn()

	require.NoError(t, q.Enqueue(a))
	require.NoError(t, q.Enqueue(b))
	require.NoError(t, q.Enqueue(c))

	got1, err := q.Dequeue()
	require.NoError(t, err)
	assert.Same(t, a, got1)

	got2, err := q.Dequeue()
	require.NoError(t, err)
	assert.Same(t, b, got2)
}

func TestSocketQueueBlocksWhenFull(t *testing.T) {
	q := NewSocketQueue(1)
	require.NoError(t, q.Enqueue(pipeConn()))

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(pipeConn()) }()

	select {
	case <-done:
		t.Fatal("Enqueue on a full queue should block")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := q.Dequeue()
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not unblock after Dequeue freed space")
	}
}

func TestSocketQueueBlocksWhenEmpty(t *testing.T) {
	q := NewSocketQueue(2)

	done := make(chan net.Conn, 1)
	go func() {
		conn, err := q.Dequeue()
		require.NoError(t, err)
		done <- conn
	}()

	select {
	case <-done:
		t.Fatal("Dequeue on an empty queue should block")
	case <-time.After(50 * time.Millisecond):
	}

	conn := pipeConn()
	require.NoError(t, q.Enqueue(conn))

	select {
	case got := <-done:
		assert.Same(t, conn, got)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not unblock after Enqueue")
	}
}

func TestSocketQueueShutdownWakesWaiters(t *testing.T) {
	q := NewSocketQueue(1)

	errs := make(chan error, 2)
	go func() {
		_, err := q.Dequeue()
		errs <- err
	}()
	full := NewSocketQueue(1)
	// Fill capacity first so the second Enqueue genuinely blocks.
	require.NoError(t, full.Enqueue(pipeConn()))
	go func() {
		errs <- full.Enqueue(pipeConn())
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()
	full.Close()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.ErrorContains(t, err, "shutdown")
		case <-time.After(time.Second):
			t.Fatal("blocked Dequeue/Enqueue did not abort on shutdown")
		}
	}

	// Enqueue/Dequeue after Close always abort immediately.
	_, err := q.Dequeue()
	assert.Error(t, err)
	err = q.Enqueue(pipeConn())
	assert.Error(t, err)
}

func TestSocketQueueCloseIsIdempotent(t *testing.T) {
	q := NewSocketQueue(2)
	q.Close()
	assert.NotPanics(t, func() { q.Close() })
}
