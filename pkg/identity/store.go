package identity

import "errors"

// ErrUserNotFound is returned by Lookup when no such username exists.
var ErrUserNotFound = errors.New("identity: user not found")

// ErrUserExists is returned by Create when the username is already taken.
var ErrUserExists = errors.New("identity: user already exists")

// CredentialStore is the key-value credential collaborator the
// authentication protocol depends on: lookup(username) -> password-hash or
// absent, create(username, password) -> ok or exists.
type CredentialStore interface {
	// Lookup returns the stored user record for username, or
	// ErrUserNotFound if no such user exists.
	Lookup(username string) (User, error)

	// Create hashes password and stores a new user record, or returns
	// ErrUserExists if username is already taken.
	Create(username, password string) error
}

// Administrable is the superset of CredentialStore the "vaultd user"
// CLI commands operate against. Both MemStore and badgerstore.Store
// implement it; the protocol package only ever depends on the narrower
// CredentialStore.
type Administrable interface {
	CredentialStore
	List() ([]User, error)
	Delete(username string) error
	SetPassword(username, password string) error
}
