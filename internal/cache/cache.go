// Package cache stores accepted records for the host application, keyed by
// strategy and input text. The parsing core never consults it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ppiankov/assignparse/internal/model"
	"go.uber.org/zap"
)

// Cache defines the byte-level storage interface
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a parse of text with strategy.
func Key(strategy, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "assignparse-v2-" + strategy + "-" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg: nil when disabled, memory only
// without a directory, memory over disk otherwise.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.TTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
}

// RecordCache stores records as JSON in a byte cache
type RecordCache struct {
	backend Cache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewRecordCache wraps backend. A nil backend yields a cache that never hits.
func NewRecordCache(backend Cache, ttl time.Duration, logger *zap.Logger) *RecordCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordCache{backend: backend, ttl: ttl, logger: logger}
}

// entry is the stored form of a record and the strategy that produced it
type entry struct {
	Producer string        `json:"producer"`
	Record   *model.Record `json:"record"`
}

// Get returns a copy of the cached record for (strategy, text) and the
// strategy that produced it, which differs from strategy after a fallback.
func (c *RecordCache) Get(strategy, text string) (*model.Record, string, bool) {
	if c == nil || c.backend == nil {
		return nil, "", false
	}
	data, ok := c.backend.Get(Key(strategy, text))
	if !ok {
		return nil, "", false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Record == nil {
		c.logger.Debug("dropping unreadable cache entry", zap.Error(err))
		return nil, "", false
	}
	e.Record.Normalize()
	if e.Producer == "" {
		e.Producer = strategy
	}
	return e.Record, e.Producer, true
}

// Put stores rec for (strategy, text) with the strategy that produced it.
// Failures are logged, never returned: a cache miss on the next run is the
// only consequence.
func (c *RecordCache) Put(strategy, text, producer string, rec *model.Record) {
	if c == nil || c.backend == nil || rec == nil {
		return
	}
	data, err := json.Marshal(entry{Producer: producer, Record: rec})
	if err != nil {
		c.logger.Debug("record not cached", zap.Error(err))
		return
	}
	if err := c.backend.Set(Key(strategy, text), data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.Error(err))
	}
}

// Clear empties the backend.
func (c *RecordCache) Clear() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Clear()
}
