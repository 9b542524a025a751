// Package memstore is an in-memory storage.Store used by unit and
// integration tests that don't need real disk I/O.
package memstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vaultd/vaultd/pkg/storage"
)

type object struct {
	data []byte
	meta storage.Metadata
}

// Store is a goroutine-safe, in-memory storage.Store keyed by (user, name).
type Store struct {
	mu      sync.RWMutex
	objects map[string]map[string]object
}

// New returns an empty Store.
func New() *Store {
	return &Store{objects: make(map[string]map[string]object)}
}

// Save implements storage.Store.
func (s *Store) Save(user, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.objects[user]
	if !ok {
		ns = make(map[string]object)
		s.objects[user] = ns
	}

	created := time.Now()
	if existing, ok := ns[name]; ok {
		created = existing.meta.Created
	}

	digest := sha256.Sum256(data)
	buf := make([]byte, len(data))
	copy(buf, data)

	ns[name] = object{
		data: buf,
		meta: storage.Metadata{
			Filename: name,
			Size:     int64(len(buf)),
			Created:  created,
			Modified: time.Now(),
			Digest:   hex.EncodeToString(digest[:]),
		},
	}
	return nil
}

// Load implements storage.Store.
func (s *Store) Load(user, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.lookup(user, name)
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

// Remove implements storage.Store.
func (s *Store) Remove(user, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.objects[user]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok := ns[name]; !ok {
		return storage.ErrNotFound
	}
	delete(ns, name)
	return nil
}

// List implements storage.Store.
func (s *Store) List(user string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.objects[user]
	if !ok || len(ns) == 0 {
		return []byte("No files found.\n"), nil
	}

	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("NAME                 SIZE       MODIFIED\n")
	for _, name := range names {
		meta := ns[name].meta
		fmt.Fprintf(&b, "%-20s %-10d %s\n", name, meta.Size, meta.Modified.Format(time.RFC3339))
	}
	return []byte(b.String()), nil
}

// SaveMetadata implements storage.Store.
func (s *Store) SaveMetadata(user string, meta storage.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.objects[user]
	if !ok {
		ns = make(map[string]object)
		s.objects[user] = ns
	}
	existing := ns[meta.Filename]
	existing.meta = meta
	ns[meta.Filename] = existing
	return nil
}

// LoadMetadata implements storage.Store.
func (s *Store) LoadMetadata(user, name string) (storage.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.lookup(user, name)
	if !ok {
		return storage.Metadata{}, storage.ErrNotFound
	}
	return obj.meta, nil
}

func (s *Store) lookup(user, name string) (object, bool) {
	ns, ok := s.objects[user]
	if !ok {
		return object{}, false
	}
	obj, ok := ns[name]
	return obj, ok
}

var _ storage.Store = (*Store)(nil)
