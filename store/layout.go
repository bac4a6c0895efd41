package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/crev-dev/crev-go/proof"
)

// Layout computes the on-disk path of a proof file within a proof
// repository's working tree, per spec.md §4.4:
//
//	<author-id>/<kind-dir>/<year>-<month>/<salt>.proof
//
// The salt is per-host (the CLI keeps it in its config file as
// identity.host-salt and passes it in as HostSalt) so
// that the same identity used on two machines writes to non-conflicting
// files when both push to the same remote (spec.md §4.4, §4.7).
type Layout struct {
	Root     string
	HostSalt string
}

func kindDir(k proof.Kind) (string, error) {
	switch k {
	case proof.KindTrust:
		return "trust", nil
	case proof.KindPackageReview, proof.KindCodeReview:
		return "reviews", nil
	default:
		return "", fmt.Errorf("store: no on-disk location for proof kind %q", k)
	}
}

// PathFor returns the deterministic file path a proof with the given
// author, kind, and date should be appended to (spec.md §4.4 invariant (i):
// "a proof's file location is deterministic from (author, kind, date,
// salt)").
func (l Layout) PathFor(authorId string, k proof.Kind, year int, month int) (string, error) {
	dir, err := kindDir(k)
	if err != nil {
		return "", err
	}
	bucket := fmt.Sprintf("%04d-%02d", year, month)
	filename := l.HostSalt + ".proof"
	return filepath.Join(l.Root, authorId, dir, bucket, filename), nil
}

// NewHostSalt generates a fresh random per-host salt for a freshly cloned
// or initialized proof repository.
func NewHostSalt() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("store: generating host salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
