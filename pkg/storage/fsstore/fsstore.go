// Package fsstore is the default on-disk implementation of storage.Store.
// Each user gets a subdirectory under the store's base path; each file is
// written alongside a JSON metadata sidecar.
package fsstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vaultd/vaultd/pkg/storage"
)

const metaSuffix = ".meta.json"

// Store is a filesystem-backed storage.Store. Writes go to a temporary
// file and are renamed into place, so a crash mid-write never leaves a
// partially-written object visible to readers.
type Store struct {
	mu       sync.RWMutex
	basePath string
	dirMode  os.FileMode
	fileMode os.FileMode
}

// Config holds construction parameters for Store.
type Config struct {
	// BasePath is the root directory under which each user gets a
	// subdirectory.
	BasePath string
	DirMode  os.FileMode
	FileMode os.FileMode
}

// DefaultConfig returns sane directory/file permissions for BasePath.
func DefaultConfig(basePath string) Config {
	return Config{BasePath: basePath, DirMode: 0o755, FileMode: 0o644}
}

// New creates the base directory if absent and returns a ready Store.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("fsstore: base path is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0o755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0o644
	}
	if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
		return nil, err
	}
	return &Store{basePath: cfg.BasePath, dirMode: cfg.DirMode, fileMode: cfg.FileMode}, nil
}

func (s *Store) userDir(user string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(user))
}

func (s *Store) objectPath(user, name string) string {
	return filepath.Join(s.userDir(user), name)
}

func (s *Store) metaPath(user, name string) string {
	return filepath.Join(s.userDir(user), name+metaSuffix)
}

// diskMetadata mirrors storage.Metadata for JSON persistence; kept separate
// so storage.Metadata itself carries no encoding tags.
type diskMetadata struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Digest   string    `json:"digest"`
}

// Save implements storage.Store.
func (s *Store) Save(user, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.userDir(user)
	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("fsstore: create user dir: %w", err)
	}

	path := s.objectPath(user, name)
	created := time.Now()
	if existing, err := loadMeta(s.metaPath(user, name)); err == nil {
		created = existing.Created
	}

	if err := writeAtomic(path, data, s.fileMode); err != nil {
		return fmt.Errorf("fsstore: write object: %w", err)
	}

	digest := sha256.Sum256(data)
	meta := diskMetadata{
		Filename: name,
		Size:     int64(len(data)),
		Created:  created,
		Modified: time.Now(),
		Digest:   hex.EncodeToString(digest[:]),
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("fsstore: marshal metadata: %w", err)
	}
	if err := writeAtomic(s.metaPath(user, name), metaBytes, s.fileMode); err != nil {
		return fmt.Errorf("fsstore: write metadata: %w", err)
	}
	return nil
}

// Load implements storage.Store.
func (s *Store) Load(user, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.objectPath(user, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("fsstore: read object: %w", err)
	}
	return data, nil
}

// Remove implements storage.Store.
func (s *Store) Remove(user, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.objectPath(user, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("fsstore: remove object: %w", err)
	}
	_ = os.Remove(s.metaPath(user, name))
	return nil
}

// List implements storage.Store, rendering the literal "No files found."
// when the user has no namespace directory yet.
func (s *Store) List(user string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.userDir(user)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []byte("No files found.\n"), nil
		}
		return nil, fmt.Errorf("fsstore: list: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), metaSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		return []byte("No files found.\n"), nil
	}

	var b strings.Builder
	b.WriteString("NAME                 SIZE       MODIFIED\n")
	for _, name := range names {
		meta, err := loadMeta(s.metaPath(user, name))
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%-20s %-10d %s\n", name, meta.Size, meta.Modified.Format(time.RFC3339))
	}
	return []byte(b.String()), nil
}

// SaveMetadata implements storage.Store.
func (s *Store) SaveMetadata(user string, meta storage.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.userDir(user)
	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("fsstore: create user dir: %w", err)
	}

	dm := diskMetadata{
		Filename: meta.Filename,
		Size:     meta.Size,
		Created:  meta.Created,
		Modified: meta.Modified,
		Digest:   meta.Digest,
	}
	data, err := json.Marshal(dm)
	if err != nil {
		return fmt.Errorf("fsstore: marshal metadata: %w", err)
	}
	return writeAtomic(s.metaPath(user, meta.Filename), data, s.fileMode)
}

// LoadMetadata implements storage.Store.
func (s *Store) LoadMetadata(user, name string) (storage.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dm, err := loadMeta(s.metaPath(user, name))
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Metadata{}, storage.ErrNotFound
		}
		return storage.Metadata{}, fmt.Errorf("fsstore: read metadata: %w", err)
	}
	return storage.Metadata{
		Filename: dm.Filename,
		Size:     dm.Size,
		Created:  dm.Created,
		Modified: dm.Modified,
		Digest:   dm.Digest,
	}, nil
}

func loadMeta(path string) (diskMetadata, error) {
	var dm diskMetadata
	data, err := os.ReadFile(path)
	if err != nil {
		return dm, err
	}
	if err := json.Unmarshal(data, &dm); err != nil {
		return dm, err
	}
	return dm, nil
}

// writeAtomic writes data to a temp file in the same directory as path and
// renames it into place, so readers never observe a partial write.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
