package proof

import (
	"bytes"
	"testing"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	body := []byte("version: -1\nkind: trust\n")
	sig := []byte{1, 2, 3, 4, 5}

	wrapped := Wrap("TRUST", body, sig)
	envs, err := Unwrap(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(envs))
	}
	if envs[0].Kind != "TRUST" {
		t.Errorf("kind = %q", envs[0].Kind)
	}
	if !bytes.Equal(envs[0].Signature, sig) {
		t.Errorf("signature mismatch: got %v want %v", envs[0].Signature, sig)
	}
	if !bytes.HasPrefix(envs[0].Body, body) {
		t.Errorf("body mismatch: got %q want prefix %q", envs[0].Body, body)
	}
}

func TestUnwrapMultipleEnvelopes(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(Wrap("TRUST", []byte("a: 1\n"), []byte("sig1")))
	stream.Write(Wrap("PACKAGE REVIEW", []byte("b: 2\n"), []byte("sig2")))

	envs, err := Unwrap(stream.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(envs))
	}
	if envs[0].Kind != "TRUST" || envs[1].Kind != "PACKAGE REVIEW" {
		t.Errorf("unexpected kinds: %q, %q", envs[0].Kind, envs[1].Kind)
	}
}

func TestUnwrapRejectsTrailingSignatureData(t *testing.T) {
	malformed := "-----BEGIN CREV TRUST-----\na: 1\n-----BEGIN CREV TRUST SIGNATURE-----\nc2ln\nextra-line\n-----END CREV TRUST-----\n"
	_, err := Unwrap([]byte(malformed))
	if err == nil {
		t.Fatal("expected an error for trailing data in the signature block")
	}
}

func TestUnwrapPassesThroughUnknownKind(t *testing.T) {
	wrapped := Wrap("FUTURE KIND", []byte("x: 1\n"), []byte("sig"))
	envs, err := Unwrap(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if envs[0].Kind != "FUTURE KIND" {
		t.Errorf("kind = %q", envs[0].Kind)
	}
	if _, ok := WireToKind(envs[0].Kind); ok {
		t.Error("an unknown wire kind should not map to a typed Kind")
	}
}
