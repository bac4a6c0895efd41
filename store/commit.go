package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crev-dev/crev-go/id"
	"github.com/crev-dev/crev-go/proof"
)

// StoreConsistency is returned by Commit when appending the signed envelope
// to the proof file at the computed path fails (spec.md §7). Commit does not
// read the file's existing contents, so duplicate or conflicting proofs
// already in it are not detected.
type StoreConsistency struct {
	Path string
	Err  error
}

func (e *StoreConsistency) Error() string {
	return fmt.Sprintf("store: on-disk repository inconsistent at %s: %v", e.Path, e.Err)
}
func (e *StoreConsistency) Unwrap() error { return e.Err }

// Committer serializes writes to a single proof repository's working tree.
// spec.md §5: "Writes (commit of a new proof) happen only on an explicit
// command and serialize through a single mutex guarding the on-disk
// layout."
type Committer struct {
	mu     sync.Mutex
	layout Layout
}

// NewCommitter returns a Committer that writes into the working tree at
// layout.Root, using layout.HostSalt to name files.
func NewCommitter(layout Layout) *Committer {
	return &Committer{layout: layout}
}

// Commit signs b as authorId (stamping Date to now) and appends the
// resulting envelope to the proof's deterministic file location, creating
// parent directories as needed. On success it also inserts the new proof
// into s so it is immediately visible to subsequent queries without a
// re-ingestion pass.
func (c *Committer) Commit(s *Store, authorId id.Id, seed id.Seed, b *proof.Body, now time.Time) error {
	b.From.Id = string(authorId)
	b.Date = now
	if b.Version == 0 {
		b.Version = proof.ActiveSchemaVersion
	}

	envelope, err := proof.Sign(seed, b)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.layout.PathFor(string(authorId), b.Kind, now.Year(), int(now.Month()))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: creating proof directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: opening proof file %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(envelope); err != nil {
		return &StoreConsistency{Path: path, Err: err}
	}

	envs, err := proof.Unwrap(envelope)
	if err != nil || len(envs) != 1 {
		return fmt.Errorf("store: re-parsing freshly signed proof: %w", err)
	}
	parsed, err := proof.ParseAndVerify(envs[0], now)
	if err != nil {
		return fmt.Errorf("store: freshly signed proof failed to verify: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(parsed)
	return nil
}

