package server

import (
	"errors"
	"fmt"
	"io"

	"github.com/vaultd/vaultd/internal/logger"
	"github.com/vaultd/vaultd/pkg/filelock"
	dispatchmetrics "github.com/vaultd/vaultd/pkg/metrics/prometheus"
	"github.com/vaultd/vaultd/pkg/protocol"
	"github.com/vaultd/vaultd/pkg/queue"
	"github.com/vaultd/vaultd/pkg/storage"
	"github.com/vaultd/vaultd/pkg/task"
	"github.com/vaultd/vaultd/pkg/vaulterrors"
)

const sendFileDataLine = "SEND_FILE_DATA\n"

// workerPool is a fixed pool of goroutines draining the task queue (spec
// §4.9). Each worker owns exactly one task at a time between dequeue and
// completion.
type workerPool struct {
	size      int
	taskQueue *queue.TaskQueue
	locks     *filelock.Table
	store     storage.Store
	maxBody   int64
	metrics   *dispatchmetrics.DispatchMetrics
}

func newWorkerPool(size int, taskQueue *queue.TaskQueue, locks *filelock.Table, store storage.Store, maxBody int64, m *dispatchmetrics.DispatchMetrics) *workerPool {
	return &workerPool{size: size, taskQueue: taskQueue, locks: locks, store: store, maxBody: maxBody, metrics: m}
}

func (p *workerPool) run(id int) {
	for {
		item, err := p.taskQueue.Dequeue()
		if err != nil {
			return
		}

		t, ok := item.(*task.Task)
		if !ok {
			continue
		}

		if t.Kind == task.Shutdown {
			t.MarkInProgress()
			t.Complete(task.Result{OK: true, Message: "worker exiting"})
			return
		}

		p.metrics.ObserveTaskWait(t.Kind.String(), float64(t.Waited().Milliseconds()))
		p.metrics.SetTaskQueueDepth(float64(p.taskQueue.Len()))
		p.metrics.IncActiveWorkers()
		p.execute(id, t)
		p.metrics.DecActiveWorkers()
	}
}

// execute runs the exactly-one-completion invariant for a single task:
// every dequeued task reaches a terminal state and signals exactly once,
// even on I/O errors and short reads.
func (p *workerPool) execute(id int, t *task.Task) {
	t.MarkInProgress()

	filename := storage.SanitizeFilename(t.Filename)
	key := filelock.Key{Username: t.Username, Filename: filename}

	if t.Kind == task.List {
		p.handleList(t)
		outcome := "ok"
		if t.State() == task.Error {
			outcome = "error"
		}
		p.metrics.ObserveTaskCompleted(t.Kind.String(), outcome)
		return
	}

	if err := p.locks.TryAcquire(key); err != nil {
		logger.Debug("worker: lock acquire failed", logger.KeyWorkerID, id, logger.KeyFilename, filename, logger.KeyError, err)
		coded := lockError(err)
		p.metrics.ObserveLockBusy(coded.Code.String())
		t.Fail(coded)
		p.metrics.ObserveTaskCompleted(t.Kind.String(), "error")
		return
	}
	defer func() {
		if releaseErr := p.locks.Release(key); releaseErr != nil {
			logger.Warn("worker: release of unheld lock", logger.KeyWorkerID, id, logger.KeyFilename, filename)
		}
	}()

	switch t.Kind {
	case task.Upload:
		p.handleUpload(t, filename)
	case task.Download:
		p.handleDownload(t, filename)
	case task.Delete:
		p.handleDelete(t, filename)
	default:
		t.Fail(vaulterrors.New(vaulterrors.CodeUnknown, fmt.Sprintf("unsupported task kind %s", t.Kind)))
	}

	outcome := "ok"
	if t.State() == task.Error {
		outcome = "error"
	}
	p.metrics.ObserveTaskCompleted(t.Kind.String(), outcome)
}

// lockError classifies a filelock.Table.TryAcquire failure into the single
// CodedError both the wire response and the lock_busy_total metric derive
// their text from.
func lockError(err error) *vaulterrors.CodedError {
	if errors.Is(err, vaulterrors.ErrLockTableFull) {
		return vaulterrors.Wrap(vaulterrors.CodeCapacity, "Server is at capacity, try again shortly", err)
	}
	return vaulterrors.Wrap(vaulterrors.CodeBusy, "File is currently being accessed by another operation", err)
}

func (p *workerPool) handleUpload(t *task.Task, filename string) {
	if _, err := io.WriteString(t.Conn, sendFileDataLine); err != nil {
		t.Fail(vaulterrors.Wrap(vaulterrors.CodeUnknown, "failed to request upload data", err))
		return
	}

	body, err := protocol.ReadFrame(t.Conn, uint64(p.maxBody))
	if err != nil {
		if errors.Is(err, protocol.ErrBodyTooLarge) {
			t.Fail(vaulterrors.Wrap(vaulterrors.CodeFraming, "file exceeds maximum upload size", err))
			return
		}
		t.Fail(vaulterrors.Wrap(vaulterrors.CodeFraming, "upload stream error", err))
		return
	}

	if err := p.store.Save(t.Username, filename, body); err != nil {
		t.Fail(vaulterrors.Wrap(vaulterrors.CodeStorage, "storage error", err))
		return
	}

	t.Complete(task.Result{OK: true, Message: fmt.Sprintf("uploaded %s (%d bytes)", filename, len(body))})
}

func (p *workerPool) handleDownload(t *task.Task, filename string) {
	data, err := p.store.Load(t.Username, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			t.Fail(vaulterrors.Wrap(vaulterrors.CodeNotFound, "file not found", err))
			return
		}
		t.Fail(vaulterrors.Wrap(vaulterrors.CodeStorage, "download failed", err))
		return
	}

	if err := protocol.WriteFrame(t.Conn, data); err != nil {
		t.Fail(vaulterrors.Wrap(vaulterrors.CodeUnknown, "download stream error", err))
		return
	}

	t.Complete(task.Result{OK: true, Message: fmt.Sprintf("downloaded %s (%d bytes)", filename, len(data))})
}

func (p *workerPool) handleDelete(t *task.Task, filename string) {
	if err := p.store.Remove(t.Username, filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			t.Fail(vaulterrors.Wrap(vaulterrors.CodeNotFound, "file not found", err))
			return
		}
		t.Fail(vaulterrors.Wrap(vaulterrors.CodeStorage, "delete failed", err))
		return
	}
	t.Complete(task.Result{OK: true, Message: fmt.Sprintf("deleted %s", filename)})
}

func (p *workerPool) handleList(t *task.Task) {
	listing, err := p.store.List(t.Username)
	if err != nil {
		t.Fail(vaulterrors.Wrap(vaulterrors.CodeStorage, "list failed", err))
		return
	}
	t.Complete(task.Result{OK: true, Bytes: listing})
}
