package identity

import (
	"sort"
	"sync"
	"time"
)

// MemStore is a goroutine-safe in-memory CredentialStore, the default
// collaborator when no persistent identity backend is configured.
type MemStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{users: make(map[string]User)}
}

// Lookup implements CredentialStore.
func (s *MemStore) Lookup(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// Create implements CredentialStore.
func (s *MemStore) Create(username, password string) error {
	if err := ValidateSignup(username, password); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.users[username] = User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	return nil
}

// CreateWithHash inserts a user whose password has already been hashed,
// used by admin bootstrap so the generated password is hashed exactly
// once.
func (s *MemStore) CreateWithHash(username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}
	s.users[username] = User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	return nil
}

// Count returns the number of registered users, used by admin bootstrap to
// decide whether to create the reserved admin account.
func (s *MemStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// List returns every registered user, sorted by username.
func (s *MemStore) List() ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// Delete removes username, or returns ErrUserNotFound if it doesn't exist.
func (s *MemStore) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, username)
	return nil
}

// SetPassword rehashes and replaces username's password.
func (s *MemStore) SetPassword(username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	s.users[username] = u
	return nil
}

var _ CredentialStore = (*MemStore)(nil)
