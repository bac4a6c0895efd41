package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/crev-dev/crev-go/id"
	"github.com/crev-dev/crev-go/proof"
)

func signTrust(t *testing.T, seed id.Seed, from id.Id, trusted id.Id, level proof.TrustLevel, when time.Time) []byte {
	t.Helper()
	b := &proof.Body{
		Version: proof.ActiveSchemaVersion,
		Kind:    proof.KindTrust,
		Date:    when,
		From:    proof.IdentityRecord{IdType: "crev", Id: string(from)},
		Ids:     []proof.IdentityRecord{{IdType: "crev", Id: string(trusted)}},
		Trust:   &level,
	}
	env, err := proof.Sign(seed, b)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func TestIngestDeduplicatesAndIndexes(t *testing.T) {
	rootId, rootSeed, _ := id.Generate()
	trustedId, _, _ := id.Generate()

	env := signTrust(t, rootSeed, rootId, trustedId, proof.TrustHigh, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	s := New()
	r1, err := s.Ingest(env, "repo-a")
	if err != nil {
		t.Fatal(err)
	}
	if r1.New != 1 || r1.Duplicate != 0 || r1.Invalid != 0 {
		t.Fatalf("unexpected first ingest report: %+v", r1)
	}

	// Ingesting the identical stream again should be fully deduplicated
	// (spec.md §8 invariant 10).
	r2, err := s.Ingest(env, "repo-b")
	if err != nil {
		t.Fatal(err)
	}
	if r2.New != 0 || r2.Duplicate != 1 {
		t.Fatalf("expected idempotent ingestion, got %+v", r2)
	}
	if s.Len() != 1 {
		t.Fatalf("store should hold exactly one proof, got %d", s.Len())
	}

	latest, ok := s.LatestTrust(string(rootId), string(trustedId))
	if !ok {
		t.Fatal("expected a trust edge")
	}
	if *latest.Body.Trust != proof.TrustHigh {
		t.Errorf("trust = %v, want high", *latest.Body.Trust)
	}
}

func TestIngestLatestWinsRegardlessOfOrder(t *testing.T) {
	rootId, rootSeed, _ := id.Generate()
	trustedId, _, _ := id.Generate()

	older := signTrust(t, rootSeed, rootId, trustedId, proof.TrustLow, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := signTrust(t, rootSeed, rootId, trustedId, proof.TrustHigh, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	// Ingest newer first, then older: the store must still reflect newer
	// regardless of ingestion order (spec.md §8 invariant 6).
	s := New()
	if _, err := s.Ingest(newer, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Ingest(older, "a"); err != nil {
		t.Fatal(err)
	}

	latest, ok := s.LatestTrust(string(rootId), string(trustedId))
	if !ok {
		t.Fatal("expected a trust edge")
	}
	if *latest.Body.Trust != proof.TrustHigh {
		t.Errorf("trust = %v, want high (the later-dated proof)", *latest.Body.Trust)
	}

	// Both proofs remain available for audit via ProofsByAuthor.
	if got := len(s.ProofsByAuthor(string(rootId))); got != 2 {
		t.Errorf("ProofsByAuthor = %d entries, want 2", got)
	}
}

func TestIngestDropsInvalidEnvelopesWithoutAborting(t *testing.T) {
	rootId, rootSeed, _ := id.Generate()
	trustedId, _, _ := id.Generate()

	good := signTrust(t, rootSeed, rootId, trustedId, proof.TrustMedium, time.Now().UTC())
	bad := bytes.Replace(good, []byte("medium"), []byte("high!!"), 1) // corrupt signed bytes

	var stream bytes.Buffer
	stream.Write(bad)
	stream.Write(good)

	s := New()
	report, err := s.Ingest(stream.Bytes(), "mixed")
	if err != nil {
		t.Fatalf("a bad envelope must not abort the whole ingest: %v", err)
	}
	if report.New != 1 {
		t.Errorf("New = %d, want 1", report.New)
	}
	if report.Invalid == 0 {
		t.Error("expected at least one invalid envelope to be reported")
	}
}
