package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// lengthPrefixSize is the width of the body length prefix. The original
// C source used the host's native size_t, which is not a wire-portable
// choice; vaultd fixes it at 8 bytes big-endian instead, a documented
// compatibility break from that source (see the framing decision in the
// project's design notes).
const lengthPrefixSize = 8

// ErrBodyTooLarge is returned by ReadFrame when the declared length
// exceeds maxLen.
var ErrBodyTooLarge = errors.New("protocol: declared body length exceeds limit")

// WriteFrame writes data as an 8-byte big-endian length prefix followed by
// the bytes themselves. Used for UPLOAD's SEND_FILE_DATA response,
// DOWNLOAD bodies, and LIST output alike.
func WriteFrame(w io.Writer, data []byte) error {
	var prefix [lengthPrefixSize]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("protocol: write length prefix: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("protocol: write body: %w", err)
	}
	return nil
}

// ReadFrame reads an 8-byte big-endian length prefix followed by exactly
// that many bytes, rejecting a declared length over maxLen before
// attempting to read the body.
func ReadFrame(r io.Reader, maxLen uint64) ([]byte, error) {
	var prefix [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("protocol: read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint64(prefix[:])
	if length > maxLen {
		return nil, ErrBodyTooLarge
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("protocol: read body: %w", err)
	}
	return body, nil
}
