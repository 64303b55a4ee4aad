package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/ppiankov/quakelink/internal/model"
)

// EnrichmentCache maps lookup keys to enrichment records. Reads run
// concurrently; writes are serialized.
type EnrichmentCache struct {
	backend Cache
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewEnrichmentCache wraps a byte cache
func NewEnrichmentCache(backend Cache, logger *slog.Logger) *EnrichmentCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichmentCache{backend: backend, logger: logger}
}

// Lookup returns the cached record for key. A miss, or an entry that no
// longer decodes, reports false.
func (c *EnrichmentCache) Lookup(key string) (*model.EnrichmentRecord, bool) {
	data, ok := c.backend.Get(key)
	if !ok {
		return nil, false
	}
	var rec model.EnrichmentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return &rec, true
}

// Store upserts the record for key
func (c *EnrichmentCache) Store(key string, rec *model.EnrichmentRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal enrichment record: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.Set(key, data, 0); err != nil {
		return fmt.Errorf("store enrichment record: %w", err)
	}
	return nil
}

// Close releases the backend if it holds resources
func (c *EnrichmentCache) Close() error {
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Open builds the enrichment cache selected by cfg
func Open(cfg model.CacheConfig, fs afero.Fs, logger *slog.Logger) (*EnrichmentCache, error) {
	memory := NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)

	switch cfg.Backend {
	case "memory":
		return NewEnrichmentCache(memory, logger), nil
	case "file", "":
		file, err := NewFileCache(fs, cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewEnrichmentCache(NewLayeredCache(memory, file), logger), nil
	case "badger":
		db, err := NewBadgerCache(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewEnrichmentCache(NewLayeredCache(memory, db), logger), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
