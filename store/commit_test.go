package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crev-dev/crev-go/id"
	"github.com/crev-dev/crev-go/proof"
)

func TestCommitWritesAndIndexesImmediately(t *testing.T) {
	dir := t.TempDir()
	authorId, seed, err := id.Generate()
	if err != nil {
		t.Fatal(err)
	}
	trustedId, _, _ := id.Generate()

	layout := Layout{Root: dir, HostSalt: "testhost"}
	committer := NewCommitter(layout)
	s := New()

	level := proof.TrustHigh
	b := &proof.Body{
		Kind: proof.KindTrust,
		Ids:  []proof.IdentityRecord{{IdType: "crev", Id: string(trustedId)}},
		Trust: &level,
	}
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if err := committer.Commit(s, authorId, seed, b, now); err != nil {
		t.Fatal(err)
	}

	latest, ok := s.LatestTrust(string(authorId), string(trustedId))
	if !ok {
		t.Fatal("committed proof should be visible immediately")
	}
	if *latest.Body.Trust != proof.TrustHigh {
		t.Errorf("trust = %v, want high", *latest.Body.Trust)
	}

	path, err := layout.PathFor(string(authorId), proof.KindTrust, now.Year(), int(now.Month()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected proof file at %s: %v", path, err)
	}
	if filepath.Base(path) != "testhost.proof" {
		t.Errorf("filename should be salted with the host salt, got %s", filepath.Base(path))
	}
}

func TestCommitAppendsWithoutOverwriting(t *testing.T) {
	dir := t.TempDir()
	authorId, seed, err := id.Generate()
	if err != nil {
		t.Fatal(err)
	}
	trustedA, _, _ := id.Generate()
	trustedB, _, _ := id.Generate()

	layout := Layout{Root: dir, HostSalt: "h"}
	committer := NewCommitter(layout)
	s := New()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	lvl := proof.TrustLow
	if err := committer.Commit(s, authorId, seed, &proof.Body{
		Kind: proof.KindTrust, Ids: []proof.IdentityRecord{{IdType: "crev", Id: string(trustedA)}}, Trust: &lvl,
	}, now); err != nil {
		t.Fatal(err)
	}
	if err := committer.Commit(s, authorId, seed, &proof.Body{
		Kind: proof.KindTrust, Ids: []proof.IdentityRecord{{IdType: "crev", Id: string(trustedB)}}, Trust: &lvl,
	}, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.LatestTrust(string(authorId), string(trustedA)); !ok {
		t.Error("first commit should still be present")
	}
	if _, ok := s.LatestTrust(string(authorId), string(trustedB)); !ok {
		t.Error("second commit should be present")
	}
}
