package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

// testMu serializes tests that mutate global logger state.
var testMu sync.Mutex

func TestBasicLogging(t *testing.T) {
	testMu.Lock()
	defer testMu.Unlock()

	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	SetFormat("text")

	Debug("debug message")
	Info("info message", "key", "value")
	Warn("warn message")
	Error("error message", "error", "boom")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG]")
	assert.Contains(t, out, "debug message")
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "error=boom")
}

func TestLevelFiltering(t *testing.T) {
	testMu.Lock()
	defer testMu.Unlock()

	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("WARN")
	Debug("should not appear")
	Info("should not appear either")
	Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestJSONFormat(t *testing.T) {
	testMu.Lock()
	defer testMu.Unlock()

	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")

	Info("task completed", KeyCommand, "UPLOAD", KeyBytes, 5)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "task completed", entry["msg"])
	assert.Equal(t, "UPLOAD", entry["command"])
	assert.Equal(t, float64(5), entry["bytes"])
}

func TestContextLogging(t *testing.T) {
	testMu.Lock()
	defer testMu.Unlock()

	t.Run("LogContextInjectsFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")

		lc := NewLogContext("sess-1", "192.168.1.100")
		lc = lc.WithUsername("alice").WithCommand("DOWNLOAD", "HIGH")
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "operation completed", "extra_field", "value")

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))

		assert.Equal(t, "sess-1", entry["session_id"])
		assert.Equal(t, "alice", entry["username"])
		assert.Equal(t, "192.168.1.100", entry["remote_ip"])
		assert.Equal(t, "DOWNLOAD", entry["command"])
		assert.Equal(t, "HIGH", entry["priority"])
		assert.Equal(t, "value", entry["extra_field"])
	})

	t.Run("NilContextHandled", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		require.NotPanics(t, func() {
			InfoCtx(nil, "test message")
		})
		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("ContextWithoutLogContextHandled", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		require.NotPanics(t, func() {
			InfoCtx(context.Background(), "test message")
		})
		assert.Contains(t, buf.String(), "test message")
	})
}

func TestLogContext(t *testing.T) {
	t.Run("NewLogContext", func(t *testing.T) {
		lc := NewLogContext("sess-1", "192.168.1.100")
		assert.Equal(t, "sess-1", lc.SessionID)
		assert.Equal(t, "192.168.1.100", lc.RemoteIP)
		assert.False(t, lc.StartTime.IsZero())
	})

	t.Run("Clone", func(t *testing.T) {
		lc := &LogContext{SessionID: "sess-1", Username: "alice", RemoteIP: "10.0.0.1"}
		clone := lc.Clone()
		assert.Equal(t, lc.SessionID, clone.SessionID)
		assert.Equal(t, lc.Username, clone.Username)

		clone.Username = "bob"
		assert.Equal(t, "alice", lc.Username)
	})

	t.Run("CloneNil", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
	})

	t.Run("WithUsername", func(t *testing.T) {
		lc := NewLogContext("sess-1", "10.0.0.1")
		lc2 := lc.WithUsername("alice")
		assert.Equal(t, "alice", lc2.Username)
		assert.Equal(t, "", lc.Username)
	})

	t.Run("WithCommand", func(t *testing.T) {
		lc := NewLogContext("sess-1", "10.0.0.1")
		lc2 := lc.WithCommand("LIST", "LOW")
		assert.Equal(t, "LIST", lc2.Command)
		assert.Equal(t, "LOW", lc2.Priority)
	})
}

func BenchmarkLogJSON(b *testing.B) {
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "DEBUG", "json", false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Info("test message", "key", "value", "count", i)
	}
}

func BenchmarkLogCtx(b *testing.B) {
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "DEBUG", "json", false)

	lc := NewLogContext("sess-1", "192.168.1.100").WithUsername("alice")
	ctx := WithContext(context.Background(), lc)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		InfoCtx(ctx, "test message", "count", i)
	}
}
