// Package store implements the proof store: an in-memory, concurrently
// readable aggregation of signed proofs ingested from one or more proof
// repositories, with the per-author/per-subject indices the WoT and
// verification engines need (spec.md §4.4).
package store

import (
	"sync"

	"github.com/crev-dev/crev-go/logging"
	"github.com/crev-dev/crev-go/proof"
)

// Store holds every valid proof ingested so far, plus indices for latest-
// date lookup by subject. Per spec.md §5, a Store is built single-threaded
// during ingestion and is safe for unsynchronized concurrent reads once
// ingestion is done; Store itself still guards its maps with a mutex so
// that a caller who ingests incrementally (e.g. a long-lived daemon) never
// races.
type Store struct {
	mu sync.RWMutex

	byKey    map[proofKey]*proof.Proof
	byAuthor map[string][]*proof.Proof

	trustLatest  map[TrustSubject]*proof.Proof
	reviewLatest map[ReviewSubject]*proof.Proof

	cache  *Cache
	logger *logging.Logger
}

// UseCache attaches a verified-proof cache; subsequent Ingest calls consult
// it to skip re-verifying signatures seen on a previous run.
func (s *Store) UseCache(c *Cache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = c
}

// SetLogger attaches l so Ingest and IngestTree report their outcome as
// structured log entries. A Store logs nowhere until this is called.
func (s *Store) SetLogger(l *logging.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byKey:        make(map[proofKey]*proof.Proof),
		byAuthor:     make(map[string][]*proof.Proof),
		trustLatest:  make(map[TrustSubject]*proof.Proof),
		reviewLatest: make(map[ReviewSubject]*proof.Proof),
		logger:       logging.Nop(),
	}
}

// Len returns the number of distinct proofs currently held (including
// superseded ones kept for audit).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// log returns the store's current logger, never nil.
func (s *Store) log() *logging.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}
