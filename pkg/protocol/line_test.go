package protocol

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReaderStripsLFAndCRLF(t *testing.T) {
	lr := NewLineReader(strings.NewReader("LOGIN alice secret\r\nLIST\n"))

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "LOGIN alice secret", line)

	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "LIST", line)

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReaderRejectsOverlongLine(t *testing.T) {
	lr := NewLineReader(strings.NewReader(strings.Repeat("a", MaxLineLength+100) + "\n"))

	_, err := lr.ReadLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
}
