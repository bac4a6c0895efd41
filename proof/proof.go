package proof

import (
	"fmt"
	"time"

	"github.com/crev-dev/crev-go/id"
)

// BadSignature is returned when a proof's signature does not verify against
// its declared author.
type BadSignature struct {
	Author string
}

func (e *BadSignature) Error() string {
	return fmt.Sprintf("proof: signature verification failed for author %s", e.Author)
}

// MaxClockSkew is the far-future tolerance beyond which a proof's date
// marks it suspicious, per spec.md §6/§9 (default one day).
const MaxClockSkew = 24 * time.Hour

// Proof is a fully parsed proof: its decoded body, the wire kind and
// detached signature of the envelope it came from, and whether its date
// looked suspicious at ingestion time. The original body bytes are not
// kept.
type Proof struct {
	Body      *Body
	Kind      string
	Signature []byte
	Suspicious bool
}

// Sign builds and signs a proof body, returning the armored envelope bytes
// ready to append to a proof file.
func Sign(seed id.Seed, b *Body) ([]byte, error) {
	body, err := Encode(b)
	if err != nil {
		return nil, err
	}
	sig, err := id.Sign(seed, body)
	if err != nil {
		return nil, err
	}
	kindWire, err := kindToWire(b.Kind)
	if err != nil {
		return nil, err
	}
	return Wrap(kindWire, body, sig), nil
}

// ParseAndVerify decodes a RawEnvelope's body and checks its signature
// against the body's declared author. now is the caller's clock, used only
// to flag (not reject) far-future dates.
func ParseAndVerify(env RawEnvelope, now time.Time) (*Proof, error) {
	b, err := Decode(env.Body)
	if err != nil {
		return nil, err
	}
	if !id.Verify(id.Id(b.From.Id), env.Body, env.Signature) {
		return nil, &BadSignature{Author: b.From.Id}
	}
	return &Proof{
		Body:       b,
		Kind:       env.Kind,
		Signature:  env.Signature,
		Suspicious: b.Date.After(now.Add(MaxClockSkew)),
	}, nil
}

func kindToWire(k Kind) (string, error) {
	switch k {
	case KindTrust:
		return "TRUST", nil
	case KindPackageReview:
		return "PACKAGE REVIEW", nil
	case KindCodeReview:
		return "CODE REVIEW", nil
	default:
		return "", fmt.Errorf("proof: cannot sign unknown kind %q", k)
	}
}

// WireToKind maps an envelope's uppercase wire kind back to our typed Kind.
// ok is false for a kind this implementation does not interpret; the
// envelope should still be retained by the store (spec.md §3).
func WireToKind(wire string) (Kind, bool) {
	switch wire {
	case "TRUST":
		return KindTrust, true
	case "PACKAGE REVIEW":
		return KindPackageReview, true
	case "CODE REVIEW":
		return KindCodeReview, true
	default:
		return "", false
	}
}
