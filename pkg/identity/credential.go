package identity

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost balances hashing latency against brute-force resistance
// for the interactive LOGIN/SIGNUP path.
const DefaultBcryptCost = 10

// MaxPasswordLength matches the wire protocol's MAX_PASSWORD limit and
// stays comfortably under bcrypt's 72-byte input ceiling.
const MaxPasswordLength = 49

// MaxUsernameLength matches the wire protocol's MAX_USERNAME limit.
const MaxUsernameLength = 49

var (
	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordLength.
	ErrPasswordTooLong = errors.New("identity: password exceeds maximum length")
	// ErrUsernameTooLong is returned when a username exceeds MaxUsernameLength.
	ErrUsernameTooLong = errors.New("identity: username exceeds maximum length")
	// ErrEmptyField is returned when a username or password is empty.
	ErrEmptyField = errors.New("identity: username and password are required")
)

// ValidateSignup checks a username/password pair against the protocol's
// length and emptiness rules before any hashing or store lookup happens.
func ValidateSignup(username, password string) error {
	if username == "" || password == "" {
		return ErrEmptyField
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword bcrypt-hashes a password already validated by ValidateSignup.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
