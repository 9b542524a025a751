// Package task defines the one-shot synchronous rendezvous between a
// session handler and a worker: a Task is submitted PENDING by a handler,
// executed by exactly one worker, and observed exactly once by the handler
// that submitted it.
package task

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vaultd/vaultd/pkg/queue"
)

// Kind identifies what a worker must do with a task. It replaces a numeric
// task_type enum plus parallel string fields with a single tag checked by
// the worker's dispatch switch.
type Kind int

const (
	Upload Kind = iota
	Download
	Delete
	List
	Shutdown
)

func (k Kind) String() string {
	switch k {
	case Upload:
		return "UPLOAD"
	case Download:
		return "DOWNLOAD"
	case Delete:
		return "DELETE"
	case List:
		return "LIST"
	case Shutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// State is a task's lifecycle stage. A task transitions
// Pending -> InProgress -> (Completed | Error) exactly once; no transition
// ever reverses.
type State int

const (
	Pending State = iota
	InProgress
	Completed
	Error
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case InProgress:
		return "IN_PROGRESS"
	case Completed:
		return "COMPLETED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Result holds what a worker produced once a task reaches a terminal state.
type Result struct {
	// OK is true for Completed, false for Error.
	OK bool
	// Bytes carries the LIST formatted listing; empty for other kinds.
	Bytes []byte
	// Message is a human-readable status line for a Completed task,
	// forwarded to the client as "SUCCESS: <Message>".
	Message string
	// Err is the cause of an Error task. The session-response layer, not
	// the worker, turns it into the "ERROR: <text>" line the client sees.
	Err error
}

// Task is the rendezvous record submitted to the task queue. Exactly one
// worker owns it between Dequeue and completion; exactly one handler waits
// on it between Submit and completion.
type Task struct {
	Kind     Kind
	Username string
	Filename string
	Priority queue.Priority
	Conn     net.Conn

	seq         uint64
	submittedAt time.Time

	mu     sync.Mutex
	cond   *sync.Cond
	state  State
	result Result
	signal bool // guards against a second Complete/Fail call
}

// New constructs a PENDING task. seq must be a monotonically increasing
// value assigned by the submitter (pkg/server) so that two tasks of equal
// priority are ordered by submission order, not by wall-clock time.
func New(kind Kind, username, filename string, priority queue.Priority, conn net.Conn, seq uint64) *Task {
	t := &Task{
		Kind:        kind,
		Username:    username,
		Filename:    filename,
		Priority:    priority,
		Conn:        conn,
		seq:         seq,
		submittedAt: time.Now(),
		state:       Pending,
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// NewShutdown constructs the SHUTDOWN pseudo-task enqueued once per worker
// during lifecycle teardown to unblock any worker idling on TaskQueue.Dequeue.
func NewShutdown(seq uint64) *Task {
	return New(Shutdown, "", "", queue.PriorityHigh, nil, seq)
}

// QueuePriority and QueueSeq satisfy queue.Prioritizable.
func (t *Task) QueuePriority() queue.Priority { return t.Priority }
func (t *Task) QueueSeq() uint64              { return t.seq }

// State returns the task's current lifecycle stage.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// MarkInProgress transitions Pending -> InProgress. Called by the worker
// immediately after dequeue, before any I/O.
func (t *Task) MarkInProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Pending {
		panic(fmt.Sprintf("task: MarkInProgress called on task in state %s", t.state))
	}
	t.state = InProgress
}

// Waited reports how long the task sat in the queue between New and now.
// Called by the worker right after dequeue, before MarkInProgress, so it
// measures queue wait time rather than execution time.
func (t *Task) Waited() time.Duration {
	return time.Since(t.submittedAt)
}

// Complete transitions the task to Completed, publishes the result, and
// wakes the waiting handler. Calling Complete or Fail a second time on the
// same task is a programmer error: it would violate the exactly-one-
// completion invariant, so it panics rather than silently overwriting a
// result someone may already have read.
func (t *Task) Complete(result Result) {
	t.finish(Completed, result)
}

// Fail transitions the task to Error with err as the cause and wakes the
// waiting handler. err is rendered to wire text by the session layer
// (pkg/protocol's errorMessage), never by the caller.
func (t *Task) Fail(err error) {
	t.finish(Error, Result{OK: false, Err: err})
}

func (t *Task) finish(state State, result Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.signal {
		panic("task: completed more than once")
	}
	t.state = state
	t.result = result
	t.signal = true
	t.cond.Broadcast()
}

// Wait blocks until the task reaches a terminal state (Completed or Error)
// and returns its result. Spurious wakeups are tolerated by re-checking the
// terminal-state predicate in a loop, per the rendezvous design: any wakeup
// that isn't the real signal just loops back to Wait.
func (t *Task) Wait() (State, Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.signal {
		t.cond.Wait()
	}
	return t.state, t.result
}
