// Package protocol implements the line-oriented wire protocol: the
// authentication state machine, the authenticated command loop, the
// priority-aware tokenizer, and the binary body framing shared by UPLOAD,
// DOWNLOAD, and LIST.
package protocol

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/vaultd/vaultd/pkg/task"
)

const capabilityLine = "OK: UPLOAD DOWNLOAD DELETE LIST QUIT\n"
const farewellLine = "BYE\n"

// TaskSubmitter is the collaborator a Session uses to hand a constructed
// task to the dispatch core and receive a monotonic sequence number for
// FIFO tiebreak. It is satisfied by pkg/server's task-queue wiring.
type TaskSubmitter interface {
	Submit(t *task.Task) error
	NextSeq() uint64
}

// Session runs the authenticated command loop (spec §4.7) for one bound
// session over one connection.
type Session struct {
	conn      net.Conn
	lr        *LineReader
	username  string
	submitter TaskSubmitter
}

// NewSession constructs a Session for an already-authenticated connection.
func NewSession(conn net.Conn, lr *LineReader, username string, submitter TaskSubmitter) *Session {
	return &Session{conn: conn, lr: lr, username: username, submitter: submitter}
}

// Run executes command-response cycles until QUIT/EXIT, peer close, a
// submit failure (typically shutdown), or an unrecoverable write error.
func (s *Session) Run() error {
	if _, err := io.WriteString(s.conn, capabilityLine+authPrompt); err != nil {
		return fmt.Errorf("protocol: write capability line: %w", err)
	}

	for {
		line, err := s.lr.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("protocol: read command line: %w", err)
		}
		if line == "" {
			if err := s.prompt(); err != nil {
				return err
			}
			continue
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			if err := s.respondLine(fmt.Sprintf("ERROR: %s\n", err.Error())); err != nil {
				return err
			}
			continue
		}

		if cmd.Verb == VerbQuit || cmd.Verb == VerbExit {
			_, werr := io.WriteString(s.conn, farewellLine)
			return werr
		}

		done, err := s.dispatch(cmd)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// dispatch builds and submits a task for cmd, waits for its result, and
// writes the response. It returns done=true if the session should end
// (submit failure, typically shutdown-in-progress).
func (s *Session) dispatch(cmd Command) (done bool, err error) {
	kind := verbToKind(cmd.Verb)
	t := task.New(kind, s.username, cmd.Filename, cmd.Priority, s.conn, s.submitter.NextSeq())

	if err := s.submitter.Submit(t); err != nil {
		_, _ = io.WriteString(s.conn, "ERROR: server is shutting down\n")
		return true, nil
	}

	state, result := t.Wait()

	if kind == task.List && state == task.Completed && len(result.Bytes) > 0 {
		if err := WriteFrame(s.conn, result.Bytes); err != nil {
			return true, err
		}
		return false, s.prompt()
	}

	if state == task.Completed {
		if err := s.respondLine(fmt.Sprintf("SUCCESS: %s\n", result.Message)); err != nil {
			return true, err
		}
		return false, nil
	}

	if err := s.respondLine(fmt.Sprintf("ERROR: %s\n", errorMessage(result.Err))); err != nil {
		return true, err
	}
	return false, nil
}

func (s *Session) respondLine(line string) error {
	if _, err := io.WriteString(s.conn, line); err != nil {
		return fmt.Errorf("protocol: write response: %w", err)
	}
	return s.prompt()
}

func (s *Session) prompt() error {
	if _, err := io.WriteString(s.conn, authPrompt); err != nil {
		return fmt.Errorf("protocol: write prompt: %w", err)
	}
	return nil
}

func verbToKind(v Verb) task.Kind {
	switch v {
	case VerbUpload:
		return task.Upload
	case VerbDownload:
		return task.Download
	case VerbDelete:
		return task.Delete
	default:
		return task.List
	}
}
