package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItem struct {
	priority Priority
	seq      uint64
	name     string
}

func (f fakeItem) QueuePriority() Priority { return f.priority }
func (f fakeItem) QueueSeq() uint64        { return f.seq }

func TestTaskQueuePriorityOrdering(t *testing.T) {
	q := NewTaskQueue(10)

	require.NoError(t, q.Enqueue(fakeItem{PriorityLow, 1, "low-1"}))
	require.NoError(t, q.Enqueue(fakeItem{PriorityHigh, 2, "high-1"}))
	require.NoError(t, q.Enqueue(fakeItem{PriorityMedium, 3, "med-1"}))
	require.NoError(t, q.Enqueue(fakeItem{PriorityHigh, 4, "high-2"}))

	order := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		item, err := q.Dequeue()
		require.NoError(t, err)
		order = append(order, item.(fakeItem).name)
	}

	assert.Equal(t, []string{"high-1", "high-2", "med-1", "low-1"}, order)
}

func TestTaskQueueFIFOTiebreakWithinPriority(t *testing.T) {
	q := NewTaskQueue(10)

	require.NoError(t, q.Enqueue(fakeItem{PriorityMedium, 5, "first"}))
	require.NoError(t, q.Enqueue(fakeItem{PriorityMedium, 2, "second-by-seq"}))
	require.NoError(t, q.Enqueue(fakeItem{PriorityMedium, 9, "third"}))

	item1, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "second-by-seq", item1.(fakeItem).name)
}

func TestTaskQueueBlocksWhenFullAndEmpty(t *testing.T) {
	q := NewTaskQueue(1)
	require.NoError(t, q.Enqueue(fakeItem{PriorityLow, 1, "a"}))

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(fakeItem{PriorityLow, 2, "b"}) }()

	select {
	case <-done:
		t.Fatal("Enqueue on full queue should block")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := q.Dequeue()
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not unblock")
	}
}

func TestTaskQueueShutdownWakesWaiters(t *testing.T) {
	q := NewTaskQueue(1)

	errs := make(chan error, 1)
	go func() {
		_, err := q.Dequeue()
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "shutdown")
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not abort on shutdown")
	}
}

func TestTaskQueueDrainReturnsRemaining(t *testing.T) {
	q := NewTaskQueue(10)
	require.NoError(t, q.Enqueue(fakeItem{PriorityHigh, 1, "a"}))
	require.NoError(t, q.Enqueue(fakeItem{PriorityLow, 2, "b"}))
	q.Close()

	remaining := q.Drain()
	assert.Len(t, remaining, 2)
	assert.Equal(t, 0, q.Len())
}
