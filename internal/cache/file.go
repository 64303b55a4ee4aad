package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
)

// FileCache keeps every entry in one JSON document. The file is read once
// at startup and rewritten whole on every update.
type FileCache struct {
	fs      afero.Fs
	path    string
	mu      sync.RWMutex
	entries map[string]fileEntry
	lock    *flock.Flock
}

type fileEntry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// ErrNotJSON is returned when a non-JSON value is stored in a FileCache
var ErrNotJSON = errors.New("file cache values must be JSON")

// NewFileCache opens the cache file at path, creating it on first write.
// On the OS filesystem rewrites also take an advisory lock on path+".lock"
// so concurrent runs do not interleave.
func NewFileCache(fs afero.Fs, path string) (*FileCache, error) {
	c := &FileCache{
		fs:      fs,
		path:    path,
		entries: make(map[string]fileEntry),
	}
	if _, ok := fs.(*afero.OsFs); ok {
		c.lock = flock.New(path + ".lock")
	}

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parse cache file %s: %w", path, err)
	}
	return c, nil
}

// Get retrieves a value from the file cache
func (c *FileCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if entry.ExpiresAt != nil && time.Now().After(*entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value and rewrites the file
func (c *FileCache) Set(key string, value []byte, ttl time.Duration) error {
	if !json.Valid(value) {
		return ErrNotJSON
	}

	entry := fileEntry{Value: append(json.RawMessage(nil), value...)}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		entry.ExpiresAt = &exp
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return c.flush()
}

// Delete removes a value and rewrites the file
func (c *FileCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return nil
	}
	delete(c.entries, key)
	return c.flush()
}

// Clear removes all values and the backing file
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]fileEntry)
	if err := c.fs.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Len reports the number of entries, expired ones included
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// flush writes the whole map; callers hold c.mu
func (c *FileCache) flush() error {
	if c.lock != nil {
		if err := c.lock.Lock(); err != nil {
			return fmt.Errorf("lock cache file: %w", err)
		}
		defer func() { _ = c.lock.Unlock() }()
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := c.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	tmp := c.path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := c.fs.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
