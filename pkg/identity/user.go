// Package identity implements the credential collaborator the
// authentication protocol binds a session to: username lookup, signup,
// and password verification.
package identity

import "time"

// User is a single account record.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
