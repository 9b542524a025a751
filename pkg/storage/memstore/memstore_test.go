package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultd/vaultd/pkg/storage"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Save("alice", "report.txt", []byte("hello world")))

	data, err := s.Load("alice", "report.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	s := New()
	_, err := s.Load("alice", "missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveComputesDigestAndPreservesCreated(t *testing.T) {
	s := New()
	require.NoError(t, s.Save("alice", "a.txt", []byte("v1")))
	meta1, err := s.LoadMetadata("alice", "a.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, meta1.Digest)

	require.NoError(t, s.Save("alice", "a.txt", []byte("v2")))
	meta2, err := s.LoadMetadata("alice", "a.txt")
	require.NoError(t, err)

	assert.NotEqual(t, meta1.Digest, meta2.Digest)
	assert.Equal(t, meta1.Created, meta2.Created, "created timestamp must survive an overwrite")
	assert.Equal(t, int64(2), meta2.Size)
}

func TestRemove(t *testing.T) {
	s := New()
	require.NoError(t, s.Save("alice", "a.txt", []byte("x")))
	require.NoError(t, s.Remove("alice", "a.txt"))

	_, err := s.Load("alice", "a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.Remove("alice", "a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListEmptyNamespace(t *testing.T) {
	s := New()
	out, err := s.List("nobody")
	require.NoError(t, err)
	assert.Equal(t, "No files found.\n", string(out))
}

func TestListIncludesFiles(t *testing.T) {
	s := New()
	require.NoError(t, s.Save("alice", "b.txt", []byte("1")))
	require.NoError(t, s.Save("alice", "a.txt", []byte("22")))

	out, err := s.List("alice")
	require.NoError(t, err)
	assert.Contains(t, string(out), "a.txt")
	assert.Contains(t, string(out), "b.txt")
}

func TestNamespacesAreIsolated(t *testing.T) {
	s := New()
	require.NoError(t, s.Save("alice", "shared.txt", []byte("alice's data")))

	_, err := s.Load("bob", "shared.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
