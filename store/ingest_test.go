package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crev-dev/crev-go/id"
	"github.com/crev-dev/crev-go/proof"
)

func TestIngestTreeWalksEveryProofFile(t *testing.T) {
	dir := t.TempDir()
	layout := Layout{Root: dir, HostSalt: "hosta"}
	committer := NewCommitter(layout)
	s := New()

	authorId, seed, err := id.Generate()
	if err != nil {
		t.Fatal(err)
	}
	trustedA, _, _ := id.Generate()
	trustedB, _, _ := id.Generate()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	high := proof.TrustHigh
	if err := committer.Commit(s, authorId, seed, &proof.Body{
		Kind: proof.KindTrust, Ids: []proof.IdentityRecord{{IdType: "crev", Id: string(trustedA)}}, Trust: &high,
	}, now); err != nil {
		t.Fatal(err)
	}
	if err := committer.Commit(s, authorId, seed, &proof.Body{
		Kind: proof.KindTrust, Ids: []proof.IdentityRecord{{IdType: "crev", Id: string(trustedB)}}, Trust: &high,
	}, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	// A fresh Store, as a second host would start with after cloning the
	// repository but before its own process has ingested anything.
	fresh := New()
	reports, err := fresh.IngestTree(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) == 0 {
		t.Fatal("expected at least one report")
	}
	var totalNew int
	for _, r := range reports {
		totalNew += r.New
	}
	if totalNew != 2 {
		t.Errorf("New = %d across reports, want 2", totalNew)
	}
	if _, ok := fresh.LatestTrust(string(authorId), string(trustedA)); !ok {
		t.Error("trustedA should be visible after IngestTree")
	}
	if _, ok := fresh.LatestTrust(string(authorId), string(trustedB)); !ok {
		t.Error("trustedB should be visible after IngestTree")
	}
}

func TestIngestTreeIgnoresNonProofFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "README"), 0o755); err == nil {
		os.Remove(filepath.Join(dir, "README"))
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a proof"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New()
	reports, err := s.IngestTree(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no reports for a tree with no .proof files, got %d", len(reports))
	}
}
