package store

import (
	"fmt"

	"github.com/crev-dev/crev-go/storage/kv"
	"github.com/crev-dev/crev-go/storage/kv/leveldbkv"
)

// Cache persists which (author, proof-hash) pairs have already been
// signature-verified, so that re-ingesting the same proof repositories on a
// later run (spec.md §8 invariant 10, "idempotent ingestion") doesn't pay
// for Ed25519 verification again. It is purely an optimization: a missing
// or corrupt cache only costs CPU time, never correctness.
type Cache struct {
	db kv.DB
}

// OpenCache opens (creating if necessary) a verified-proof cache backed by
// leveldb at path.
func OpenCache(path string) (*Cache, error) {
	db, err := leveldbkv.OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close releases the cache's underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Seen reports whether (author, hash) has previously been recorded as
// verified.
func (c *Cache) Seen(author, hash string) bool {
	_, err := c.db.Get(cacheKey(author, hash))
	return err == nil
}

// MarkSeen records (author, hash) as verified.
func (c *Cache) MarkSeen(author, hash string) error {
	if err := c.db.Put(cacheKey(author, hash), []byte{1}); err != nil {
		return fmt.Errorf("store: recording verified proof in cache: %w", err)
	}
	return nil
}

func cacheKey(author, hash string) []byte {
	return []byte(author + "\x00" + hash)
}
