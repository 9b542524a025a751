package fsstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultd/vaultd/pkg/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("alice", "report.txt", []byte("hello world")))

	data, err := s.Load("alice", "report.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load("alice", "missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveUpdatesMetadataDigest(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("alice", "a.txt", []byte("v1")))
	meta1, err := s.LoadMetadata("alice", "a.txt")
	require.NoError(t, err)

	require.NoError(t, s.Save("alice", "a.txt", []byte("v2")))
	meta2, err := s.LoadMetadata("alice", "a.txt")
	require.NoError(t, err)

	assert.NotEqual(t, meta1.Digest, meta2.Digest)
	assert.Equal(t, meta1.Created, meta2.Created)
}

func TestRemoveDeletesObjectAndMetadata(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("alice", "a.txt", []byte("x")))
	require.NoError(t, s.Remove("alice", "a.txt"))

	_, err := s.Load("alice", "a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.LoadMetadata("alice", "a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListNoDirectoryYet(t *testing.T) {
	s := newTestStore(t)
	out, err := s.List("nobody")
	require.NoError(t, err)
	assert.Equal(t, "No files found.\n", string(out))
}

func TestListExcludesMetadataSidecars(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("alice", "a.txt", []byte("1")))

	out, err := s.List("alice")
	require.NoError(t, err)
	assert.Contains(t, string(out), "a.txt")
	assert.NotContains(t, string(out), metaSuffix)
}
