package store

import (
	"encoding/base64"

	"golang.org/x/crypto/blake2b"
)

// TrustSubject identifies the subject of a trust proof: (author, trusted id)
// (spec.md §3, "Proof Store. Invariants").
type TrustSubject struct {
	Author  string
	Trusted string
}

// ReviewSubject identifies the subject of a package or code review proof:
// (author, source, name, version).
type ReviewSubject struct {
	Author  string
	Source  string
	Name    string
	Version string
}

// PackageSubject identifies all reviews of a package regardless of version:
// the (source, name) pair that ReviewsOfPackage filters on.
type PackageSubject struct {
	Source string
	Name   string
}

// proofKey deduplicates proofs by (author id, content hash of the signed
// body), per spec.md §4.4 "insert keyed by (author-id, proof-hash)".
type proofKey struct {
	Author string
	Hash   string
}

func hashBody(body []byte) string {
	sum := blake2b.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
