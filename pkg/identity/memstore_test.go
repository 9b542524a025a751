package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreCreateAndLookup(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Create("alice", "hunter2pass"))

	u, err := s.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.True(t, VerifyPassword("hunter2pass", u.PasswordHash))
}

func TestMemStoreLookupMissing(t *testing.T) {
	s := NewMemStore()
	_, err := s.Lookup("nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemStoreCreateDuplicate(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Create("alice", "hunter2pass"))

	err := s.Create("alice", "anotherpass")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestMemStoreCreateRejectsInvalidInput(t *testing.T) {
	s := NewMemStore()
	err := s.Create("alice", "")
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestMemStoreCount(t *testing.T) {
	s := NewMemStore()
	assert.Equal(t, 0, s.Count())

	require.NoError(t, s.Create("alice", "hunter2pass"))
	assert.Equal(t, 1, s.Count())
}

func TestMemStoreListIsSortedByUsername(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Create("bob", "hunter2pass"))
	require.NoError(t, s.Create("alice", "hunter2pass"))

	users, err := s.List()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestMemStoreDelete(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Create("alice", "hunter2pass"))

	require.NoError(t, s.Delete("alice"))
	_, err := s.Lookup("alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, s.Delete("alice"), ErrUserNotFound)
}

func TestMemStoreSetPassword(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Create("alice", "hunter2pass"))

	require.NoError(t, s.SetPassword("alice", "newpassword1"))
	u, err := s.Lookup("alice")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("newpassword1", u.PasswordHash))
	assert.False(t, VerifyPassword("hunter2pass", u.PasswordHash))
}

func TestMemStoreSetPasswordMissingUser(t *testing.T) {
	s := NewMemStore()
	assert.ErrorIs(t, s.SetPassword("nobody", "newpassword1"), ErrUserNotFound)
}

var _ Administrable = (*MemStore)(nil)
