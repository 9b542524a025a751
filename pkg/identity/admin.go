package identity

import (
	"crypto/rand"
	"encoding/base64"
)

// AdminUsername is the reserved username vaultd creates on first start if
// the credential store has no users yet.
const AdminUsername = "admin"

// GenerateRandomPassword returns a cryptographically secure 24-character
// URL-safe base64 password, printed once to stdout on admin bootstrap.
func GenerateRandomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// counter is satisfied by any credential store that can insert a user with
// an already-hashed password, so EnsureAdmin works against either MemStore
// or badgerstore.Store without importing either concretely. The current
// user count is supplied by the caller separately.
type counter interface {
	CreateWithHash(username, passwordHash string) error
}

// EnsureAdmin creates the reserved admin user with a freshly generated
// password if userCount is zero, returning the generated password so the
// caller can print it once. It returns an empty password and creates
// nothing if the store already holds any user (userCount > 0).
func EnsureAdmin(store counter, userCount int) (password string, created bool, err error) {
	if userCount > 0 {
		return "", false, nil
	}

	password, err = GenerateRandomPassword()
	if err != nil {
		return "", false, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", false, err
	}
	if err := store.CreateWithHash(AdminUsername, hash); err != nil {
		return "", false, err
	}
	return password, true, nil
}
