// Package storage defines the byte-level object store that workers call
// into for UPLOAD, DOWNLOAD, DELETE, and LIST. The dispatch core never
// touches a file path directly; it only ever calls through Store.
package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Load, Remove, and LoadMetadata when no object
// exists for the given (user, name).
var ErrNotFound = errors.New("storage: object not found")

// Metadata describes one stored object, kept alongside the object itself.
type Metadata struct {
	Filename string
	Size     int64
	Created  time.Time
	Modified time.Time
	// Digest is the lowercase hex SHA-256 of the object's content.
	Digest string
}

// Store is the external collaborator contract the dispatch core depends on.
// Every method is atomic with respect to concurrent callers for a given
// (user, name) pair provided the caller has gone through the file-lock
// table first — Store implementations are not required to serialize
// operations on the same key themselves.
type Store interface {
	// Save writes bytes as the named object for user, creating the user's
	// namespace if it does not yet exist, and updates the object's metadata
	// (size, created-if-new, modified=now, SHA-256 digest).
	Save(user, name string, data []byte) error

	// Load returns the full content of the named object.
	Load(user, name string) ([]byte, error)

	// Remove deletes the named object and its metadata.
	Remove(user, name string) error

	// List returns a human-readable listing of every object in user's
	// namespace: a stable header followed by one line per file with name,
	// size, and modified timestamp. An absent namespace renders as
	// "No files found.".
	List(user string) ([]byte, error)

	// SaveMetadata persists meta under (user, meta.Filename) independent of
	// Save; used when metadata needs to be written without rewriting bytes.
	SaveMetadata(user string, meta Metadata) error

	// LoadMetadata returns the metadata for the named object, or ErrNotFound
	// if no such object exists.
	LoadMetadata(user, name string) (Metadata, error)
}
