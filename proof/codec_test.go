package proof

import (
	"bytes"
	"testing"
	"time"
)

func sampleTrustBody() *Body {
	level := TrustHigh
	return &Body{
		Version: ActiveSchemaVersion,
		Kind:    KindTrust,
		Date:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		From: IdentityRecord{
			IdType: "crev",
			Id:     "author-id-base64",
			URL:    "https://example.com/proofs",
		},
		Ids: []IdentityRecord{
			{IdType: "crev", Id: "subject-id-base64"},
		},
		Trust:   &level,
		Comment: "known collaborator",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := sampleTrustBody()
	encoded, err := Encode(b)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	reencoded, err := Encode(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Errorf("encode(decode(encode(B))) != encode(B)\nfirst:\n%s\nsecond:\n%s", encoded, reencoded)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	b := sampleTrustBody()
	a, err := Encode(b)
	if err != nil {
		t.Fatal(err)
	}
	c, err := Encode(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, c) {
		t.Error("two encodings of the same body differ")
	}
}

func TestUnknownFieldsPreserved(t *testing.T) {
	b := sampleTrustBody()
	encoded, err := Encode(b)
	if err != nil {
		t.Fatal(err)
	}

	// Insert an unknown field, as a future schema version might.
	withUnknown := append([]byte{}, encoded...)
	withUnknown = append(withUnknown, []byte("future-field: 1\n")...)

	decoded, err := Decode(withUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Extra["future-field"] != 1 {
		t.Fatalf("expected future-field to be preserved as 1, got %v", decoded.Extra["future-field"])
	}

	reencoded, err := Encode(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(reencoded, []byte("future-field: 1")) {
		t.Errorf("re-encoding dropped the unknown field:\n%s", reencoded)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not: [valid yaml"))
	if err == nil {
		t.Fatal("expected a MalformedProof error")
	}
	if _, ok := err.(*MalformedProof); !ok {
		t.Errorf("expected *MalformedProof, got %T", err)
	}
}
