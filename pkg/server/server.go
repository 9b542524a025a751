// Package server wires the bounded queues, file-lock table, storage
// backend, and credential store into the acceptor/handler-pool/worker-pool
// pipeline described in spec.md §4: one acceptor goroutine, H handlers, W
// workers, connected by a socket queue and a priority task queue.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vaultd/vaultd/internal/logger"
	"github.com/vaultd/vaultd/pkg/filelock"
	"github.com/vaultd/vaultd/pkg/identity"
	dispatchmetrics "github.com/vaultd/vaultd/pkg/metrics/prometheus"
	"github.com/vaultd/vaultd/pkg/queue"
	"github.com/vaultd/vaultd/pkg/storage"
	"github.com/vaultd/vaultd/pkg/task"
	"github.com/vaultd/vaultd/pkg/vaulterrors"
)

const overloadMessage = "ERROR: server is at capacity, please try again later\n"

// Server owns the full dispatch core: the listener, both bounded queues,
// the file-lock table, the storage and credential backends, and the
// handler/worker goroutine pools. Serve blocks until Stop is called or the
// listener fails; Stop is safe to call from a signal handler goroutine.
type Server struct {
	cfg     Config
	store   storage.Store
	creds   identity.CredentialStore
	metrics *dispatchmetrics.DispatchMetrics

	sockets *queue.SocketQueue
	tasks   *queue.TaskQueue
	locks   *filelock.Table

	seq atomic.Uint64

	listenerMu sync.Mutex
	listener   net.Listener

	activeConns sync.Map // net.Conn -> struct{}, mid-session sockets

	shutdownOnce sync.Once
	shutdownCh   chan struct{}

	handlerWG sync.WaitGroup
	workerWG  sync.WaitGroup
}

// New constructs a Server ready to Serve. It does not open the listener or
// start any goroutines.
func New(cfg Config, store storage.Store, creds identity.CredentialStore) *Server {
	return &Server{
		cfg:        cfg,
		store:      store,
		creds:      creds,
		sockets:    queue.NewSocketQueue(cfg.SocketQueueCapacity),
		tasks:      queue.NewTaskQueue(cfg.TaskQueueCapacity),
		locks:      filelock.NewTable(cfg.LockTableCapacity),
		shutdownCh: make(chan struct{}),
	}
}

// WithMetrics attaches a Prometheus collector set for the dispatch core to
// report into. Safe to skip: every collector call on a nil *DispatchMetrics
// is a no-op, so an unconfigured Server simply reports nothing.
func (s *Server) WithMetrics(m *dispatchmetrics.DispatchMetrics) *Server {
	s.metrics = m
	return s
}

// NextSeq assigns a monotonically increasing submission sequence number,
// satisfying protocol.TaskSubmitter. It is the tiebreak key the task queue
// uses to order tasks of equal priority by submission order.
func (s *Server) NextSeq() uint64 {
	return s.seq.Add(1)
}

// Submit enqueues a task for a worker to execute, satisfying
// protocol.TaskSubmitter.
func (s *Server) Submit(t *task.Task) error {
	return s.tasks.Enqueue(t)
}

// Serve opens the listener and blocks, accepting connections and running
// the handler/worker pools, until Stop is called or the listener fails.
// Serve should be called once per Server.
func (s *Server) Serve() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Addr, err)
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	logger.Info("server: listening", logger.KeyRemoteIP, listener.Addr().String())

	s.handlerWG.Add(s.cfg.HandlerPoolSize)
	handlers := newHandlerPool(s.cfg.HandlerPoolSize, s.sockets, s.creds, s, &s.activeConns, s.metrics)
	for i := 0; i < s.cfg.HandlerPoolSize; i++ {
		go func(id int) {
			defer s.handlerWG.Done()
			handlers.run(id)
		}(i)
	}

	s.workerWG.Add(s.cfg.WorkerPoolSize)
	workers := newWorkerPool(s.cfg.WorkerPoolSize, s.tasks, s.locks, s.store, s.cfg.MaxBody, s.metrics)
	for i := 0; i < s.cfg.WorkerPoolSize; i++ {
		go func(id int) {
			defer s.workerWG.Done()
			workers.run(id)
		}(i)
	}

	return s.acceptLoop(listener)
}

// acceptLoop accepts connections until the listener is closed by Stop. Per
// spec.md §4.10: if the socket queue rejects an accepted connection
// (shutdown in progress, or the queue is saturated and shutdown has begun),
// the acceptor writes an overload message and closes the socket rather than
// blocking indefinitely.
func (s *Server) acceptLoop(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdownCh:
				return nil
			default:
				logger.Debug("server: accept error", logger.KeyError, err)
				continue
			}
		}

		if err := s.sockets.Enqueue(conn); err != nil {
			_, _ = conn.Write([]byte(overloadMessage))
			_ = conn.Close()
			continue
		}
	}
}

// Stop initiates the shutdown sequence from spec.md §4.10: close the
// listener to wake the acceptor, broadcast both queues closed to wake
// every blocked enqueuer/dequeuer, enqueue one SHUTDOWN task per worker,
// join handlers and then workers, and force-close any sockets still
// mid-session once ShutdownTimeout elapses. Safe to call more than once.
func (s *Server) Stop() error {
	s.shutdownOnce.Do(func() {
		logger.Info("server: shutdown initiated")
		close(s.shutdownCh)

		s.listenerMu.Lock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.listenerMu.Unlock()

		s.sockets.Close()

		for i := 0; i < s.cfg.WorkerPoolSize; i++ {
			_ = s.tasks.Enqueue(task.NewShutdown(s.seq.Add(1)))
		}
		s.tasks.Close()
		s.failDrainedTasks()
	})

	done := make(chan struct{})
	go func() {
		s.handlerWG.Wait()
		s.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("server: graceful shutdown complete")
		return nil
	case <-time.After(s.cfg.ShutdownTimeout):
		logger.Warn("server: shutdown timeout exceeded, force-closing sockets")
		s.forceCloseActiveConns()
		<-done
		return fmt.Errorf("server: shutdown timeout after %s, sockets force-closed", s.cfg.ShutdownTimeout)
	}
}

// failDrainedTasks fails every task left in the queue after Close so no
// handler is left waiting on a task that no worker will ever execute.
func (s *Server) failDrainedTasks() {
	for _, item := range s.tasks.Drain() {
		t, ok := item.(*task.Task)
		if !ok || t.Kind == task.Shutdown {
			continue
		}
		t.Fail(vaulterrors.Wrap(vaulterrors.CodeShutdown, "server is shutting down", vaulterrors.ErrShutdown))
	}
}

func (s *Server) forceCloseActiveConns() {
	s.activeConns.Range(func(key, _ any) bool {
		if conn, ok := key.(net.Conn); ok {
			_ = conn.Close()
		}
		return true
	})
}
