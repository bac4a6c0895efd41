// Package id implements crev identities: Ed25519 keypairs named by their
// base64 public key, and the passphrase-locked secret-key records used to
// store them on disk.
package id

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// Id is the base64 URL-safe, unpadded encoding of an Ed25519 public key.
// It is an identity's stable name (spec.md §3, "Identity (Id)").
type Id string

// PublicKey returns the raw 32-byte Ed25519 public key this Id encodes.
func (i Id) PublicKey() (ed25519.PublicKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(string(i))
	if err != nil {
		return nil, fmt.Errorf("id: malformed id %q: %w", i, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("id: wrong public key length %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func idFromPublicKey(pk ed25519.PublicKey) Id {
	return Id(base64.RawURLEncoding.EncodeToString(pk))
}

// Seed is the unlocked Ed25519 seed (the secret half of a keypair). Callers
// are responsible for zeroing it once it is no longer needed.
type Seed []byte

// Generate creates a fresh Ed25519 keypair and returns its public Id
// alongside the secret seed.
func Generate() (Id, Seed, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", nil, fmt.Errorf("id: key generation failed: %w", err)
	}
	return idFromPublicKey(pub), Seed(priv.Seed()), nil
}

// Sign produces a detached Ed25519 signature over body. body is expected to
// already be canonical-codec bytes; sign never re-encodes it.
func Sign(seed Seed, body []byte) ([]byte, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("id: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return ed25519.Sign(priv, body), nil
}

// Verify checks a detached signature against the claimed identity.
func Verify(signer Id, body, sig []byte) bool {
	pk, err := signer.PublicKey()
	if err != nil {
		return false
	}
	return ed25519.Verify(pk, body, sig)
}

// Matches reports whether seed is the secret half of id's keypair.
func Matches(seed Seed, id Id) bool {
	if len(seed) != ed25519.SeedSize {
		return false
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub, ok := priv.Public().(ed25519.PublicKey)
	return ok && idFromPublicKey(pub) == id
}
