package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSignup(t *testing.T) {
	longUsername := strings.Repeat("u", MaxUsernameLength+1)
	longPassword := strings.Repeat("p", MaxPasswordLength+1)

	cases := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "alice", "hunter2", nil},
		{"empty username", "", "hunter2", ErrEmptyField},
		{"empty password", "alice", "", ErrEmptyField},
		{"username too long", longUsername, "hunter2", ErrUsernameTooLong},
		{"password too long", "alice", longPassword, ErrPasswordTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSignup(tc.username, tc.password)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong password", hash))
}
