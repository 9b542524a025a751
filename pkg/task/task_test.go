package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultd/vaultd/pkg/queue"
)

func TestTaskWaitBlocksUntilComplete(t *testing.T) {
	tk := New(Upload, "alice", "report.txt", queue.PriorityMedium, nil, 1)

	done := make(chan Result, 1)
	go func() {
		_, result := tk.Wait()
		done <- result
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Complete was called")
	case <-time.After(30 * time.Millisecond):
	}

	tk.MarkInProgress()
	tk.Complete(Result{OK: true, Message: "stored"})

	select {
	case result := <-done:
		assert.True(t, result.OK)
		assert.Equal(t, "stored", result.Message)
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Complete")
	}

	state, _ := tk.Wait()
	assert.Equal(t, Completed, state)
}

func TestTaskFailSetsErrorState(t *testing.T) {
	tk := New(Delete, "bob", "x.txt", queue.PriorityHigh, nil, 2)
	tk.MarkInProgress()
	failure := errors.New("file is currently being accessed by another operation")
	tk.Fail(failure)

	state, result := tk.Wait()
	assert.Equal(t, Error, state)
	assert.False(t, result.OK)
	assert.Equal(t, failure, result.Err)
}

func TestTaskWaitedMeasuresQueueTime(t *testing.T) {
	tk := New(Upload, "alice", "a.txt", queue.PriorityLow, nil, 6)
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, tk.Waited(), 5*time.Millisecond)
}

func TestTaskDoubleCompletePanics(t *testing.T) {
	tk := New(Upload, "alice", "a.txt", queue.PriorityLow, nil, 3)
	tk.MarkInProgress()
	tk.Complete(Result{OK: true})

	assert.Panics(t, func() {
		tk.Complete(Result{OK: true})
	})
}

func TestTaskMarkInProgressTwicePanics(t *testing.T) {
	tk := New(Upload, "alice", "a.txt", queue.PriorityLow, nil, 4)
	tk.MarkInProgress()

	assert.Panics(t, func() {
		tk.MarkInProgress()
	})
}

func TestTaskConcurrentWaitersAllObserveSameResult(t *testing.T) {
	tk := New(List, "carol", "", queue.PriorityMedium, nil, 5)

	const waiters = 8
	results := make(chan Result, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			_, result := tk.Wait()
			results <- result
		}()
	}

	time.Sleep(20 * time.Millisecond)
	tk.MarkInProgress()
	tk.Complete(Result{OK: true, Bytes: []byte("a.txt\nb.txt\n")})

	for i := 0; i < waiters; i++ {
		select {
		case result := <-results:
			require.True(t, result.OK)
			assert.Equal(t, "a.txt\nb.txt\n", string(result.Bytes))
		case <-time.After(time.Second):
			t.Fatal("a waiter never observed completion")
		}
	}
}

func TestNewShutdownIsHighPriority(t *testing.T) {
	tk := NewShutdown(99)
	assert.Equal(t, Shutdown, tk.Kind)
	assert.Equal(t, queue.PriorityHigh, tk.QueuePriority())
	assert.Equal(t, uint64(99), tk.QueueSeq())
}
