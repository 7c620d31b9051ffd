package draft

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
)

// Key is the storage key holding the unsent message text.
const Key = "messageDraft"

// Store persists the message draft in a PebbleDB key-value store so it
// survives restarts of the client.
type Store struct {
	mu sync.Mutex
	db *pebble.DB
}

// Open opens the store rooted at dir. An empty dir keeps the draft in memory
// for the lifetime of the process.
func Open(dir string) (*Store, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dir = filepath.Clean(dir)
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Load returns the stored draft, or "" when none was saved.
func (s *Store) Load() (string, error) {
	if s == nil || s.db == nil {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, closer, err := s.db.Get([]byte(Key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer func() { _ = closer.Close() }()
	return string(val), nil
}

// Save replaces the stored draft with text.
func (s *Store) Save(text string) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Set([]byte(Key), []byte(text), pebble.Sync)
}

// Clear removes the stored draft.
func (s *Store) Clear() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Delete([]byte(Key), pebble.Sync)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
