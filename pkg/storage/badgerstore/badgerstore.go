// Package badgerstore wraps a storage.Store with a badger-backed metadata
// index, so Filename/Size/Created/Modified/Digest lookups are served from
// an embedded KV store instead of scanning the filesystem tree on every
// LIST or LoadMetadata call. Object bytes themselves still flow through the
// wrapped Store unchanged — only the metadata catalog is persisted in
// badger.
package badgerstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vaultd/vaultd/pkg/storage"
)

// Store fronts an underlying storage.Store with a badger metadata index.
type Store struct {
	db    *badger.DB
	inner storage.Store
}

// Open opens (creating if absent) a badger database at dir and returns a
// Store that indexes metadata for objects persisted through inner.
func Open(dir string, inner storage.Store) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open: %w", err)
	}
	return &Store{db: db, inner: inner}, nil
}

// Close releases the badger database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func indexKey(user, name string) []byte {
	return []byte("meta/" + user + "/" + name)
}

func prefixKey(user string) []byte {
	return []byte("meta/" + user + "/")
}

// Save writes the object through the inner store and indexes its metadata
// in badger.
func (s *Store) Save(user, name string, data []byte) error {
	if err := s.inner.Save(user, name, data); err != nil {
		return err
	}
	meta, err := s.inner.LoadMetadata(user, name)
	if err != nil {
		return fmt.Errorf("badgerstore: read metadata after save: %w", err)
	}
	return s.SaveMetadata(user, meta)
}

// Load delegates to the inner store; badger is not consulted for bytes.
func (s *Store) Load(user, name string) ([]byte, error) {
	return s.inner.Load(user, name)
}

// Remove deletes the object from the inner store and its index entry from
// badger.
func (s *Store) Remove(user, name string) error {
	if err := s.inner.Remove(user, name); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(indexKey(user, name))
	})
	if err != nil {
		return fmt.Errorf("badgerstore: delete index entry: %w", err)
	}
	return nil
}

// List renders the listing from the badger index rather than the
// filesystem, so it stays fast even for namespaces with many files.
func (s *Store) List(user string) ([]byte, error) {
	var metas []storage.Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := prefixKey(user)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var m storage.Metadata
				if err := json.Unmarshal(val, &m); err != nil {
					return err
				}
				metas = append(metas, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerstore: list: %w", err)
	}

	if len(metas) == 0 {
		return []byte("No files found.\n"), nil
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Filename < metas[j].Filename })

	var b strings.Builder
	b.WriteString("NAME                 SIZE       MODIFIED\n")
	for _, m := range metas {
		fmt.Fprintf(&b, "%-20s %-10d %s\n", m.Filename, m.Size, m.Modified.Format(time.RFC3339))
	}
	return []byte(b.String()), nil
}

// SaveMetadata writes meta to the badger index under (user, meta.Filename).
func (s *Store) SaveMetadata(user string, meta storage.Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("badgerstore: marshal metadata: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(indexKey(user, meta.Filename), data)
	})
	if err != nil {
		return fmt.Errorf("badgerstore: write index entry: %w", err)
	}
	return nil
}

// LoadMetadata reads metadata from the badger index, returning
// storage.ErrNotFound if absent.
func (s *Store) LoadMetadata(user, name string) (storage.Metadata, error) {
	var meta storage.Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(user, name))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		if err == storage.ErrNotFound {
			return storage.Metadata{}, storage.ErrNotFound
		}
		return storage.Metadata{}, fmt.Errorf("badgerstore: read index entry: %w", err)
	}
	return meta, nil
}

var _ storage.Store = (*Store)(nil)
