package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultTTL is how long a cached response stays servable.
	DefaultTTL = 24 * time.Hour

	// fingerprintLen bounds the cache key length.
	fingerprintLen = 40
)

// Fingerprint derives the bounded cache key for one request. Identical
// (model, temperature, prompt) triples always map to the same key.
func Fingerprint(model string, temperature float64, prompt string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%.4f|%s", model, temperature, prompt)))
	return hex.EncodeToString(h[:])[:fingerprintLen]
}

// cacheEntry is the on-disk document, one JSON file per cached response.
type cacheEntry struct {
	CreatedAt time.Time `json:"created_at"`
	Payload   string    `json:"payload"`
}

// Cache stores backend responses on disk with lazy TTL expiry: stale
// entries are deleted by the read that discovers them, never by a
// background sweep.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewCache returns a cache rooted at dir with the default TTL.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir, ttl: DefaultTTL, now: time.Now}
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get returns the cached payload for key if one exists and is fresh.
// A stale or unreadable entry is removed as a side effect of the read.
func (c *Cache) Get(key string) (string, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("removing corrupt cache entry")
		_ = os.Remove(path)
		return "", false
	}

	if c.now().Sub(entry.CreatedAt) > c.ttl {
		log.Debug().Str("key", key).Msg("removing expired cache entry")
		_ = os.Remove(path)
		return "", false
	}
	return entry.Payload, true
}

// Put writes a payload under key. The write goes through a temp file and
// rename so a crashed invocation never leaves a torn JSON document.
func (c *Cache) Put(key, payload string) error {
	if err := os.MkdirAll(c.dir, 0750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(cacheEntry{CreatedAt: c.now(), Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize cache entry: %w", err)
	}
	return nil
}
