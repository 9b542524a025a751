// Package badgerstore is a persistent identity.CredentialStore backed by
// an embedded badger database, so registered users survive a restart
// without a separate SQL dependency.
package badgerstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vaultd/vaultd/pkg/identity"
)

// Store is a badger-backed identity.CredentialStore.
type Store struct {
	db *badger.DB
}

type record struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open opens (creating if absent) a badger database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying badger database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func userKey(username string) []byte {
	return []byte("user/" + username)
}

// Lookup implements identity.CredentialStore.
func (s *Store) Lookup(username string) (identity.User, error) {
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err == badger.ErrKeyNotFound {
			return identity.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if err == identity.ErrUserNotFound {
			return identity.User{}, identity.ErrUserNotFound
		}
		return identity.User{}, fmt.Errorf("badgerstore: lookup: %w", err)
	}
	return identity.User{Username: rec.Username, PasswordHash: rec.PasswordHash, CreatedAt: rec.CreatedAt}, nil
}

// Create implements identity.CredentialStore.
func (s *Store) Create(username, password string) error {
	if err := identity.ValidateSignup(username, password); err != nil {
		return err
	}
	hash, err := identity.HashPassword(password)
	if err != nil {
		return err
	}
	return s.createWithHash(username, hash)
}

// CreateWithHash inserts a user whose password has already been hashed,
// mirroring identity.MemStore's admin-bootstrap affordance.
func (s *Store) CreateWithHash(username, passwordHash string) error {
	return s.createWithHash(username, passwordHash)
}

func (s *Store) createWithHash(username, passwordHash string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(username)); err == nil {
			return identity.ErrUserExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		rec := record{Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(userKey(username), data)
	})
}

// Count returns the number of registered users, used by admin bootstrap to
// decide whether to create the reserved admin account.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badgerstore: count: %w", err)
	}
	return count, nil
}

// List returns every registered user, sorted by username.
func (s *Store) List() ([]identity.User, error) {
	var users []identity.User
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			users = append(users, identity.User{
				Username:     rec.Username,
				PasswordHash: rec.PasswordHash,
				CreatedAt:    rec.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerstore: list: %w", err)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// Delete removes username, or returns identity.ErrUserNotFound if it
// doesn't exist.
func (s *Store) Delete(username string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(username)); err == badger.ErrKeyNotFound {
			return identity.ErrUserNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(userKey(username))
	})
	if err != nil {
		if err == identity.ErrUserNotFound {
			return identity.ErrUserNotFound
		}
		return fmt.Errorf("badgerstore: delete: %w", err)
	}
	return nil
}

// SetPassword rehashes and replaces username's password.
func (s *Store) SetPassword(username, password string) error {
	hash, err := identity.HashPassword(password)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err == badger.ErrKeyNotFound {
			return identity.ErrUserNotFound
		} else if err != nil {
			return err
		}

		var rec record
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		rec.PasswordHash = hash

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(userKey(username), data)
	})
}

var _ identity.CredentialStore = (*Store)(nil)
