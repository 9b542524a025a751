package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameThenReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("the quick brown fox jumps over the lazy dog")

	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriteFrameEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))

	got, err := ReadFrame(&buf, 1<<20)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadFrameRejectsOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, make([]byte, 100)))

	_, err := ReadFrame(&buf, 10)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestReadFrameShortBodyErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))

	truncated := buf.Bytes()[:len(buf.Bytes())-2]
	_, err := ReadFrame(bytes.NewReader(truncated), 1<<20)
	assert.Error(t, err)
}
