package protocol

import (
	"errors"

	"github.com/vaultd/vaultd/pkg/vaulterrors"
)

// errorMessage renders err as the text that follows "ERROR: " on the
// wire. Worker and handler code deals only in plain Go errors; this is
// the single place that translates one to client-facing text.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}

	var ce *vaulterrors.CodedError
	if errors.As(err, &ce) {
		return ce.Message
	}

	switch {
	case errors.Is(err, vaulterrors.ErrBusy):
		return "File is currently being accessed by another operation"
	case errors.Is(err, vaulterrors.ErrLockTableFull):
		return "Server is at capacity, try again shortly"
	case errors.Is(err, vaulterrors.ErrShutdown):
		return "Server is shutting down"
	default:
		return err.Error()
	}
}
