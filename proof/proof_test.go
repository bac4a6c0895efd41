package proof

import (
	"testing"
	"time"

	"github.com/crev-dev/crev-go/id"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	authorId, seed, err := id.Generate()
	if err != nil {
		t.Fatal(err)
	}

	level := TrustMedium
	b := &Body{
		Version: ActiveSchemaVersion,
		Kind:    KindTrust,
		Date:    time.Now().UTC(),
		From:    IdentityRecord{IdType: "crev", Id: string(authorId)},
		Ids:     []IdentityRecord{{IdType: "crev", Id: "someone-else"}},
		Trust:   &level,
	}

	envelope, err := Sign(seed, b)
	if err != nil {
		t.Fatal(err)
	}

	envs, err := Unwrap(envelope)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(envs))
	}

	parsed, err := ParseAndVerify(envs[0], time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Body.From.Id != string(authorId) {
		t.Errorf("author mismatch: got %s want %s", parsed.Body.From.Id, authorId)
	}
	if parsed.Suspicious {
		t.Error("freshly-signed proof should not be flagged suspicious")
	}
}

func TestParseAndVerifyRejectsBadSignature(t *testing.T) {
	authorId, seed, err := id.Generate()
	if err != nil {
		t.Fatal(err)
	}
	level := TrustLow
	b := &Body{
		Version: ActiveSchemaVersion,
		Kind:    KindTrust,
		Date:    time.Now().UTC(),
		From:    IdentityRecord{IdType: "crev", Id: string(authorId)},
		Trust:   &level,
	}
	envelope, err := Sign(seed, b)
	if err != nil {
		t.Fatal(err)
	}
	envs, err := Unwrap(envelope)
	if err != nil {
		t.Fatal(err)
	}
	envs[0].Signature[0] ^= 0xFF

	_, err = ParseAndVerify(envs[0], time.Now().UTC())
	if err == nil {
		t.Fatal("expected BadSignature error")
	}
	if _, ok := err.(*BadSignature); !ok {
		t.Errorf("expected *BadSignature, got %T", err)
	}
}

func TestParseAndVerifyFlagsFarFutureDate(t *testing.T) {
	authorId, seed, err := id.Generate()
	if err != nil {
		t.Fatal(err)
	}
	level := TrustLow
	b := &Body{
		Version: ActiveSchemaVersion,
		Kind:    KindTrust,
		Date:    time.Now().UTC().Add(30 * 24 * time.Hour),
		From:    IdentityRecord{IdType: "crev", Id: string(authorId)},
		Trust:   &level,
	}
	envelope, err := Sign(seed, b)
	if err != nil {
		t.Fatal(err)
	}
	envs, err := Unwrap(envelope)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseAndVerify(envs[0], time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Suspicious {
		t.Error("a far-future date should be flagged suspicious")
	}
}
